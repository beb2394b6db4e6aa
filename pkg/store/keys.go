package store

import "encoding/binary"

// Key-prefix namespaces, one per named table in the spec's persisted-state
// layout (§6). Badger has one flat keyspace; each table gets its own
// leading byte the way the teacher's indexes package gives each index its
// own prefix constant.
const (
	prefixEvent        = byte(0x01) // serial -> event JSON
	prefixIDIndex      = byte(0x02) // id -> serial (id lookup)
	prefixAKCI         = byte(0x03) // author+kind+created_at+serial -> nil
	prefixKCI          = byte(0x04) // kind+created_at+serial -> nil
	prefixTCI          = byte(0x05) // tag_letter+tag_value+created_at+serial -> nil
	prefixHashtag      = byte(0x06) // hashtag+created_at+serial -> nil
	prefixPerson       = byte(0x07) // pubkey -> PersonRecord
	prefixPersonRelay  = byte(0x08) // pubkey+url -> PersonRelay
	prefixRelay        = byte(0x09) // url -> RelayRecord
	prefixPersonList   = byte(0x0a) // owner+listKind -> PersonListRecord
	prefixRelByID      = byte(0x0b) // parentID+childID -> RelationshipByID JSON
	prefixUnindexedGW  = byte(0x0c) // id -> nil (unindexed-giftwraps)
	prefixGeneral      = byte(0x0d) // key -> value (settings/general table)
	prefixEventSeenOn  = byte(0x0e) // serial+url -> firstSeen unixtime
	prefixEventViewed  = byte(0x0f) // serial -> unixtime viewed
	prefixExpiration   = byte(0x10) // expiry(8 BE)+serial -> nil
	prefixMarker       = byte(0x11) // arbitrary marker keys
	prefixPersonListMD = byte(0x12) // owner+listKind -> metadata JSON
	prefixRelByAddr    = byte(0x13) // targetAddr+relatedID -> RelationshipByAddr JSON
)

func beU64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func beU16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

// invertedTime orders created_at descending when used as a sort key
// (badger iterates keys ascending), by subtracting from the max value.
func invertedTime(createdAt int64) []byte {
	return beU64(^uint64(createdAt))
}

func eventKey(serial uint64) []byte {
	return append([]byte{prefixEvent}, beU64(serial)...)
}

func idIndexKey(id []byte) []byte {
	return append([]byte{prefixIDIndex}, id...)
}

func akciKey(pubkey []byte, kind uint16, createdAt int64, serial uint64) []byte {
	k := make([]byte, 0, 1+32+2+8+8)
	k = append(k, prefixAKCI)
	k = append(k, pubkey...)
	k = append(k, beU16(kind)...)
	k = append(k, invertedTime(createdAt)...)
	k = append(k, beU64(serial)...)
	return k
}

func akciPrefix(pubkey []byte, kind uint16, hasKind bool) []byte {
	k := make([]byte, 0, 1+32+2)
	k = append(k, prefixAKCI)
	k = append(k, pubkey...)
	if hasKind {
		k = append(k, beU16(kind)...)
	}
	return k
}

func kciKey(kind uint16, createdAt int64, serial uint64) []byte {
	k := make([]byte, 0, 1+2+8+8)
	k = append(k, prefixKCI)
	k = append(k, beU16(kind)...)
	k = append(k, invertedTime(createdAt)...)
	k = append(k, beU64(serial)...)
	return k
}

func kciPrefix(kind uint16) []byte {
	return append([]byte{prefixKCI}, beU16(kind)...)
}

func tciKey(letter byte, value []byte, createdAt int64, serial uint64) []byte {
	k := make([]byte, 0, 1+1+2+len(value)+8+8)
	k = append(k, prefixTCI, letter)
	k = append(k, beU16(uint16(len(value)))...)
	k = append(k, value...)
	k = append(k, invertedTime(createdAt)...)
	k = append(k, beU64(serial)...)
	return k
}

func tciPrefix(letter byte, value []byte) []byte {
	k := append([]byte{prefixTCI, letter}, beU16(uint16(len(value)))...)
	k = append(k, value...)
	return k
}

func hashtagKey(tagValue []byte, createdAt int64, serial uint64) []byte {
	k := make([]byte, 0, 1+2+len(tagValue)+8+8)
	k = append(k, prefixHashtag)
	k = append(k, beU16(uint16(len(tagValue)))...)
	k = append(k, tagValue...)
	k = append(k, invertedTime(createdAt)...)
	k = append(k, beU64(serial)...)
	return k
}

func hashtagPrefix(tagValue []byte) []byte {
	k := append([]byte{prefixHashtag}, beU16(uint16(len(tagValue)))...)
	k = append(k, tagValue...)
	return k
}

func personKey(pubkey []byte) []byte {
	return append([]byte{prefixPerson}, pubkey...)
}

func personRelayKey(pubkey []byte, url string) []byte {
	return append(append([]byte{prefixPersonRelay}, pubkey...), url...)
}

func personRelayPrefix(pubkey []byte) []byte {
	return append([]byte{prefixPersonRelay}, pubkey...)
}

func relayKey(url string) []byte {
	return append([]byte{prefixRelay}, url...)
}

func relayPrefix() []byte {
	return []byte{prefixRelay}
}

func personListKey(owner []byte, listKind uint16) []byte {
	return append(append([]byte{prefixPersonList}, owner...), beU16(listKind)...)
}

func personListMetaKey(owner []byte, listKind uint16) []byte {
	return append(append([]byte{prefixPersonListMD}, owner...), beU16(listKind)...)
}

func relByIDKey(parent, child []byte) []byte {
	return append(append([]byte{prefixRelByID}, parent...), child...)
}

func relByIDPrefix(parent []byte) []byte {
	return append([]byte{prefixRelByID}, parent...)
}

func relByAddrKey(targetAddr string, related []byte) []byte {
	return append(append([]byte{prefixRelByAddr}, targetAddr...), related...)
}

func relByAddrPrefix(targetAddr string) []byte {
	return append([]byte{prefixRelByAddr}, targetAddr...)
}

func unindexedGWKey(id []byte) []byte {
	return append([]byte{prefixUnindexedGW}, id...)
}

func generalKey(key string) []byte {
	return append([]byte{prefixGeneral}, key...)
}

func eventSeenOnKey(serial uint64, url string) []byte {
	return append(append([]byte{prefixEventSeenOn}, beU64(serial)...), url...)
}

func eventSeenOnPrefix(serial uint64) []byte {
	return append([]byte{prefixEventSeenOn}, beU64(serial)...)
}

func eventViewedKey(serial uint64) []byte {
	return append([]byte{prefixEventViewed}, beU64(serial)...)
}

func expirationKey(expiresAt int64, serial uint64) []byte {
	return append(append([]byte{prefixExpiration}, beU64(uint64(expiresAt))...), beU64(serial)...)
}
