// Package convert maps domain types to and from the wire messages of the discovery API.
package convert

import (
	"fmt"

	apiv1 "github.com/and161185/discokeeper/api/discovery/v1"
	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/model"
)

// --- identifiers ---

// ToAPIPid converts a domain Pid.
func ToAPIPid(p model.Pid) apiv1.Pid {
	return apiv1.Pid{Medium: string(p.Medium), Address: p.Address, State: string(p.State)}
}

// ToAPIPids converts a list, never returning nil.
func ToAPIPids(ps []model.Pid) []apiv1.Pid {
	out := make([]apiv1.Pid, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToAPIPid(p))
	}
	return out
}

// FromAPIIdentifier validates medium and address and returns the registry key.
func FromAPIIdentifier(medium, address string) (model.PidKey, error) {
	k, ok := model.NormalizeKey(medium, address)
	switch {
	case ok:
		return k, nil
	case !k.Medium.Valid():
		return model.PidKey{}, fmt.Errorf("medium %q: %w", medium, errs.ErrInvalidIdentifier)
	default:
		return model.PidKey{}, fmt.Errorf("empty address: %w", errs.ErrInvalidIdentifier)
	}
}

// --- settings ---

// ToAPIChangeState converts a change screen snapshot. The error is flattened to its message.
func ToAPIChangeState(s model.ChangeServerState) apiv1.ChangeState {
	out := apiv1.ChangeState{
		ExistingServer: s.ExistingServer,
		Candidate:      s.Candidate,
		IsVerifying:    s.IsVerifying,
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return out
}

// ToAPISettings converts the discovery view of an account. The homeserver token is never sent.
func ToAPISettings(v model.DiscoveryView) apiv1.Settings {
	return apiv1.Settings{
		AccountID:      v.ID.String(),
		Homeserver:     v.Homeserver,
		IdentityServer: v.IdentityServer,
		Pids:           ToAPIPids(v.Pids),
		Change:         ToAPIChangeState(v.Change),
		Listening:      v.Listening,
	}
}

// --- change results ---

// ToAPINavigation converts a navigation outcome; nil stays nil.
func ToAPINavigation(n *model.NavigationOutcome) *apiv1.Navigation {
	if n == nil {
		return nil
	}
	return &apiv1.Navigation{
		Kind:        n.Kind.String(),
		Server:      n.Server,
		PendingURLs: append([]string(nil), n.PendingURLs...),
	}
}

// ToAPIChangeResponse converts a gated change result.
func ToAPIChangeResponse(r model.ChangeResult) *apiv1.ChangeResponse {
	out := &apiv1.ChangeResponse{
		Applied:    r.Applied,
		Server:     r.Server,
		Navigation: ToAPINavigation(r.Navigation),
	}
	if r.Confirmation != nil {
		out.Confirmation = &apiv1.Confirmation{
			CurrentServer:   r.Confirmation.CurrentServer,
			CandidateServer: r.Confirmation.CandidateServer,
		}
	}
	return out
}

// ToAPIResults converts reconcile results; errors are flattened to messages.
func ToAPIResults(rs []model.ReconcileResult) []apiv1.ReconcileResult {
	out := make([]apiv1.ReconcileResult, 0, len(rs))
	for _, r := range rs {
		rr := apiv1.ReconcileResult{Pid: ToAPIPid(r.Pid)}
		if r.Err != nil {
			rr.Error = r.Err.Error()
		}
		out = append(out, rr)
	}
	return out
}
