package overlord

import (
	"github.com/mikedilger/gossip-sub003/pkg/encoders/hex"
	"github.com/mikedilger/gossip-sub003/pkg/minion"
	"github.com/mikedilger/gossip-sub003/pkg/relaypicker"
	"github.com/mikedilger/gossip-sub003/pkg/store"
)

// storeAdapter composes *store.D with the Overlord's own live-connection
// registry to satisfy relaypicker.Store. The adapter lives here rather
// than in pkg/store so that the low-level store package never has to
// import its own consumer: store is a leaf, relaypicker is middle tier,
// and the Overlord is where both come together.
type storeAdapter struct {
	st *store.D
	ov *O
}

func (a *storeAdapter) GetPersonRelayEdges(pubkey string) ([]relaypicker.PersonRelayEdge, error) {
	pk, err := hex.Dec(pubkey)
	if err != nil {
		return nil, err
	}
	rows, err := a.st.GetPersonRelays(pk)
	if err != nil {
		return nil, err
	}
	out := make([]relaypicker.PersonRelayEdge, 0, len(rows))
	for _, r := range rows {
		out = append(out, relaypicker.PersonRelayEdge{
			URL:                 r.URL,
			LastFetched:         r.LastFetched,
			LastSuggestedKind3:  r.LastSuggestedKind3,
			LastSuggestedNIP05:  r.LastSuggestedNIP05,
			LastSuggestedByTag:  r.LastSuggestedByTag,
			Write:               r.Write,
			ManuallyPairedWrite: r.ManuallyPairedWrite,
		})
	}
	return out, nil
}

func (a *storeAdapter) AllRelayURLs() ([]string, error) {
	rows, err := a.st.ListRelays()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Rank == 0 || r.Hidden {
			continue
		}
		out = append(out, r.URL)
	}
	return out, nil
}

func (a *storeAdapter) ConnectedRelayURLs() map[string]bool {
	return a.ov.connectedRelayURLs()
}

// authPolicyAdapter composes *store.D to satisfy minion.AuthPolicy, living
// here for the same reason storeAdapter does: pkg/store stays a leaf.
type authPolicyAdapter struct {
	st *store.D
}

func (a *authPolicyAdapter) ApprovalForAuth(url string) minion.AuthApproval {
	r, err := a.st.GetRelay(url)
	if err != nil {
		return minion.AuthAsk
	}
	switch r.AllowAuth {
	case store.ApprovalAlways:
		return minion.AuthAlways
	case store.ApprovalNever:
		return minion.AuthNever
	default:
		return minion.AuthAsk
	}
}
