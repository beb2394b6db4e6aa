package minion

import (
	"github.com/mikedilger/gossip-sub003/pkg/encoders/filter"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/kind"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/tag"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/timestamp"
)

// Variant names the enumerated FilterSet kinds of spec.md §4.5.
type Variant int

const (
	VariantAugments Variant = iota
	VariantConfig
	VariantDiscover
	VariantDmChannel
	VariantGeneralFeedFuture
	VariantGeneralFeedChunk
	VariantGiftwraps
	VariantGlobalFeedFuture
	VariantGlobalFeedChunk
	VariantInboxFeedFuture
	VariantInboxFeedChunk
	VariantPersonFeedFuture
	VariantPersonFeedChunk
	VariantMetadata
	VariantNip46
	VariantRepliesToId
	VariantRepliesToAddr
)

// handlePrefix namespaces stable subscription handles per variant so two
// relays never collide and a resumed session can recognize its own
// long-lived subscriptions.
var handlePrefix = map[Variant]string{
	VariantAugments:          "temp_augments",
	VariantConfig:            "config",
	VariantDiscover:          "temp_discover",
	VariantDmChannel:         "dm_channel",
	VariantGeneralFeedFuture: "general_feed_future",
	VariantGeneralFeedChunk:  "temp_general_feed_chunk",
	VariantGiftwraps:         "giftwraps",
	VariantGlobalFeedFuture:  "global_feed_future",
	VariantGlobalFeedChunk:   "temp_global_feed_chunk",
	VariantInboxFeedFuture:   "inbox_feed_future",
	VariantInboxFeedChunk:    "temp_inbox_feed_chunk",
	VariantPersonFeedFuture:  "person_feed_future",
	VariantPersonFeedChunk:   "temp_person_feed_chunk",
	VariantMetadata:          "temp_metadata",
	VariantNip46:             "nip46",
	VariantRepliesToId:       "replies_to_id",
	VariantRepliesToAddr:     "replies_to_addr",
}

// temporary variants close themselves on EOSE (spec.md §4.5 table).
var temporary = map[Variant]bool{
	VariantAugments:         true,
	VariantDiscover:         true,
	VariantGeneralFeedChunk: true,
	VariantGlobalFeedChunk:  true,
	VariantInboxFeedChunk:   true,
	VariantPersonFeedChunk:  true,
	VariantMetadata:         true,
}

// allowDuplicate variants may have more than one concurrently-open
// subscription sharing the same handle prefix (chunked back-pagination
// jobs), so their id is suffixed with a caller-supplied job id.
var allowDuplicate = map[Variant]bool{
	VariantGeneralFeedChunk: true,
	VariantGlobalFeedChunk:  true,
	VariantInboxFeedChunk:   true,
	VariantPersonFeedChunk:  true,
	VariantAugments:         true,
}

// authorOpen variants would otherwise carry no `authors` constraint and are
// therefore subject to spec.md §4.5's spam-safety substitution.
var authorOpen = map[Variant]bool{
	VariantInboxFeedFuture: true,
	VariantInboxFeedChunk:  true,
	VariantRepliesToId:     true,
	VariantRepliesToAddr:   true,
}

// Request is one synthesized subscription: its stable handle, whether it is
// transient, whether duplicates sharing its prefix are tolerated, and the
// filters to send.
type Request struct {
	Variant   Variant
	Handle    string
	Temporary bool
	Filters   filter.S
}

// Job describes the parameters needed to synthesize any FilterSet variant;
// only the fields relevant to Variant are read.
type Job struct {
	Variant    Variant
	JobID      string   // appended to Handle when allowDuplicate[Variant]
	IDs        [][]byte // Augments, RepliesToId
	Addr       string   // RepliesToAddr ("kind:pubkey:d")
	Pubkeys    [][]byte // Discover, GeneralFeed*, GlobalFeed*, PersonFeed*, Metadata
	Channel    [][]byte // DmChannel party set
	Since      int64
	Until      int64
	Limit      uint
	Own        []byte // our own pubkey, Config/Giftwraps/Nip46
	Subscribed [][]byte // spam-safety fallback author set
}

// Synthesize builds the wire Request for job, substituting an author
// constraint when spamSafe is false and avoidSpam is true and the variant
// would otherwise be author-open (spec.md §4.5 Spam-safety).
func Synthesize(job Job, spamSafe, avoidSpam bool) Request {
	handle := handlePrefix[job.Variant]
	if allowDuplicate[job.Variant] && job.JobID != "" {
		handle = handle + "_" + job.JobID
	}
	req := Request{
		Variant:   job.Variant,
		Handle:    handle,
		Temporary: temporary[job.Variant],
	}
	req.Filters = filtersFor(job)
	if authorOpen[job.Variant] && !spamSafe && avoidSpam {
		for _, f := range req.Filters {
			f.Authors = authorTag(job.Subscribed)
		}
	}
	return req
}

func filtersFor(job Job) filter.S {
	f := filter.New()
	switch job.Variant {
	case VariantAugments:
		f.Ids = idTag(job.IDs)
		f.Kinds = kind.NewS(kind.Reaction, kind.Zap, kind.Deletion)
	case VariantConfig:
		f.Authors = idTag([][]byte{job.Own})
		f.Kinds = kind.NewS(
			kind.ProfileMetadata, kind.FollowList,
			kind.New(10002), kind.New(10050), kind.New(10000), kind.New(30001),
		)
	case VariantDiscover:
		f.Authors = idTag(job.Pubkeys)
		f.Kinds = kind.NewS(kind.New(10002))
	case VariantDmChannel:
		f.Kinds = kind.NewS(kind.New(4))
		f.Tags = taggedValues('p', append(job.Channel, job.Own))
	case VariantGeneralFeedFuture, VariantGlobalFeedFuture:
		f.Authors = idTag(job.Pubkeys)
		f.Kinds = kind.NewS(kind.TextNote, kind.Repost, kind.GenericRepost)
		if job.Since > 0 {
			f.Since = timestamp.New()
			f.Since.V = job.Since
		}
	case VariantGeneralFeedChunk, VariantGlobalFeedChunk:
		f.Authors = idTag(job.Pubkeys)
		f.Kinds = kind.NewS(kind.TextNote, kind.Repost, kind.GenericRepost)
		if job.Until > 0 {
			f.Until = timestamp.New()
			f.Until.V = job.Until
		}
		if job.Limit > 0 {
			f.Limit = &job.Limit
		}
	case VariantGiftwraps:
		f.Tags = taggedValues('p', [][]byte{job.Own})
		f.Kinds = kind.NewS(kind.New(1059))
		if job.Since > 0 {
			f.Since = timestamp.New()
			f.Since.V = job.Since - 7*86400
		}
	case VariantInboxFeedFuture, VariantPersonFeedFuture:
		f.Tags = taggedValues('p', job.Pubkeys)
		if job.Since > 0 {
			f.Since = timestamp.New()
			f.Since.V = job.Since
		}
	case VariantInboxFeedChunk, VariantPersonFeedChunk:
		f.Tags = taggedValues('p', job.Pubkeys)
		if job.Until > 0 {
			f.Until = timestamp.New()
			f.Until.V = job.Until
		}
		if job.Limit > 0 {
			f.Limit = &job.Limit
		}
	case VariantMetadata:
		f.Authors = idTag(job.Pubkeys)
		f.Kinds = kind.NewS(kind.ProfileMetadata, kind.New(10002), kind.New(10050))
	case VariantNip46:
		f.Tags = taggedValues('p', [][]byte{job.Own})
		f.Kinds = kind.NewS(kind.New(24133))
	case VariantRepliesToId:
		f.Tags = taggedValues('e', job.IDs)
	case VariantRepliesToAddr:
		f.Tags = taggedValues('a', [][]byte{[]byte(job.Addr)})
	}
	return filter.S{f}
}

func idTag(ids [][]byte) *tag.T {
	t := tag.NewWithCap(len(ids))
	t.T = append(t.T, ids...)
	return t
}

func authorTag(ids [][]byte) *tag.T { return idTag(ids) }

func taggedValues(letter byte, values [][]byte) *tag.S {
	t := tag.NewWithCap(len(values) + 1)
	t.T = append(t.T, []byte{letter})
	t.T = append(t.T, values...)
	s := tag.S{t}
	return &s
}
