package identity

import (
	"strconv"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/tag"
)

// setNonceTag replaces (or appends) the pre-event's "nonce" tag with the
// given nonce counter and target zero-bit commitment, per NIP-13.
func setNonceTag(pre *event.E, nonce uint64, zeroBits int) {
	if pre.Tags == nil {
		pre.Tags = tag.NewSWithCap(1)
	}
	nonceTag := tag.NewFromAny(
		"nonce", strconv.FormatUint(nonce, 10), strconv.Itoa(zeroBits),
	)
	for i, t := range *pre.Tags {
		if t.Len() > 0 && string(t.T[tag.Key]) == "nonce" {
			(*pre.Tags)[i] = nonceTag
			return
		}
	}
	pre.Tags.Append(nonceTag)
}
