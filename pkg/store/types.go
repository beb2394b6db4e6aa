package store

import "github.com/mikedilger/gossip-sub003/pkg/encoders/hex"

// Usage is the per-relay capability bitset (spec.md §3 RelayRecord).
type Usage uint16

const (
	UsageRead Usage = 1 << iota
	UsageWrite
	UsageInbox
	UsageOutbox
	UsageDiscover
	UsageSpamSafe
	UsageDM
	// usageAdvertiseLegacy is the retired ADVERTISE bit (spec.md §9 open
	// question): the relay write path strips it, but a record loaded from an older
	// disk image may still carry it in the raw uint16, so it has a name
	// here rather than being silently reused for something else.
	usageAdvertiseLegacy
)

func (u Usage) Has(bit Usage) bool { return u&bit != 0 }

// StripLegacy clears the retired ADVERTISE bit.
func (u Usage) StripLegacy() Usage { return u &^ usageAdvertiseLegacy }

// Approval is a tri-state policy toggle (spec.md §3 allow_connect/allow_auth).
type Approval uint8

const (
	ApprovalAsk Approval = iota
	ApprovalAlways
	ApprovalNever
)

// RelayRecord is the per-relay persisted row (spec.md §3).
type RelayRecord struct {
	URL               string
	SuccessCount      uint64
	FailureCount      uint64
	LastConnectedAt   int64
	LastGeneralEoseAt int64
	Rank              uint8 // 0-9, default 3; 0 = never use
	Hidden            bool
	Usage             Usage
	NIP11             []byte // raw relay-information document, if fetched
	LastNIP11Attempt  int64
	AllowConnect      Approval
	AllowAuth         Approval
}

// NewRelayRecord returns a RelayRecord with spec.md defaults (rank 3, asking
// approvals).
func NewRelayRecord(url string) *RelayRecord {
	return &RelayRecord{URL: url, Rank: 3, AllowConnect: ApprovalAsk, AllowAuth: ApprovalAsk}
}

// PersonRecord is the per-key persisted row (spec.md §3).
type PersonRecord struct {
	Pubkey              string
	Petname             string
	Metadata            []byte // last-known kind-0 content blob
	MetadataCreatedAt   int64
	LastReceivedAt      int64
	NIP05Valid          bool
	NIP05LastCheckedAt  int64
	RelayListCreatedAt  int64
	DMRelayListCreated  int64
}

// PersonRelayRecord is the (person, relay) edge row (spec.md §3).
type PersonRelayRecord struct {
	Pubkey               string
	URL                  string
	LastFetched          int64
	LastSuggestedKind3   int64
	LastSuggestedNIP05   int64
	LastSuggestedByTag   int64
	Read                 bool
	Write                bool
	DM                   bool
	ManuallyPairedRead   bool
	ManuallyPairedWrite  bool
}

// PersonListKind enumerates the tagged-enum variants of PersonList
// (spec.md §3: Followed, Muted, Custom(u8)). Followed/Muted occupy fixed
// slots; Custom lists are numbered starting at CustomListBase.
type PersonListKind uint16

const (
	ListFollowed PersonListKind = 1
	ListMuted    PersonListKind = 2
	// CustomListBase is the first id available to Custom(u8) lists; the
	// u8 discriminant is added to it.
	CustomListBase PersonListKind = 100
)

// PersonListMetadata is the per-list metadata record (spec.md §3).
type PersonListMetadata struct {
	Kind            PersonListKind
	Title           string
	DTag            string
	LastEditTime    int64
	EventCreatedAt  int64
	TotalCount      int
	PrivateCount    int
}

// RelationshipByID variants (spec.md §3). Exactly one field is meaningful
// per Kind; this mirrors the teacher's flat-struct-with-discriminant style
// used for RelayRecord's usage bitset rather than an interface hierarchy,
// since these rows are small, numerous, and serialized wholesale.
type RelKind uint8

const (
	RelRepliesTo RelKind = iota + 1
	RelAnnotates
	RelReactsTo
	RelZaps
	RelDeletes
	RelReposts
	RelLabels
	RelTimestamps
	RelReports
)

// RelationshipByID is a (target_id, related_id) -> variant row.
type RelationshipByID struct {
	Kind     RelKind
	By       []byte // author of the related event, when applicable
	Reaction string // ReactsTo content
	Amount   int64  // Zaps millisats
	Reason   string // Deletes content
}

// RelationshipByAddr is the addressable-target counterpart, keyed by
// (kind:pubkey:d, related_id).
type RelationshipByAddr struct {
	Kind     RelKind
	By       []byte
	Reaction string
	Amount   int64
	Reason   string
}

func hexOf(b []byte) string { return hex.Enc(b) }
