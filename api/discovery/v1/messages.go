package discoveryv1

// Pid is a third-party identifier and its binding state.
type Pid struct {
	Medium  string `json:"medium"`
	Address string `json:"address"`
	State   string `json:"state,omitempty"`
}

// ChangeState mirrors the identity server change screen.
type ChangeState struct {
	ExistingServer string `json:"existing_server,omitempty"`
	Candidate      string `json:"candidate,omitempty"`
	Error          string `json:"error,omitempty"`
	IsVerifying    bool   `json:"is_verifying"`
}

// Settings is the discovery configuration of the calling account.
type Settings struct {
	AccountID      string      `json:"account_id"`
	Homeserver     string      `json:"homeserver,omitempty"`
	IdentityServer string      `json:"identity_server,omitempty"`
	Pids           []Pid       `json:"pids"`
	Change         ChangeState `json:"change"`
	Listening      bool        `json:"listening"`
}

// Confirmation is returned instead of a change while Shared identifiers exist.
type Confirmation struct {
	CurrentServer   string `json:"current_server"`
	CandidateServer string `json:"candidate_server,omitempty"`
}

// Navigation is the outcome of a terms check: "no_terms", "show_terms" or "terms_accepted".
type Navigation struct {
	Kind        string   `json:"kind"`
	Server      string   `json:"server"`
	PendingURLs []string `json:"pending_urls,omitempty"`
}

type GetSettingsRequest struct{}

type GetSettingsResponse struct {
	Settings Settings `json:"settings"`
}

type LinkAccountRequest struct {
	Homeserver  string `json:"homeserver"`
	AccessToken string `json:"access_token"`
}

type LinkAccountResponse struct {
	Settings Settings `json:"settings"`
}

type IdentifierRequest struct {
	Medium  string `json:"medium"`
	Address string `json:"address"`
}

type IdentifierResponse struct {
	Pid Pid `json:"pid"`
}

type SetCandidateRequest struct {
	Server string `json:"server"`
}

type SetCandidateResponse struct {
	Change ChangeState `json:"change"`
}

type SubmitIdentityServerRequest struct {
	Confirmed bool `json:"confirmed"`
}

type DisconnectIdentityServerRequest struct {
	Confirmed bool `json:"confirmed"`
}

// ChangeResponse is returned by SubmitIdentityServer and DisconnectIdentityServer.
type ChangeResponse struct {
	Applied      bool          `json:"applied"`
	Server       string        `json:"server,omitempty"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	Navigation   *Navigation   `json:"navigation,omitempty"`
}

type AcceptTermsRequest struct {
	Server string   `json:"server"`
	URLs   []string `json:"urls"`
}

type AcceptTermsResponse struct{}

type CheckVerificationRequest struct {
	Medium  string `json:"medium"`
	Address string `json:"address"`
	Bind    bool   `json:"bind"`
}

type SubmitPhoneTokenRequest struct {
	Msisdn string `json:"msisdn"`
	Code   string `json:"code"`
	Bind   bool   `json:"bind"`
}

type ResumeRequest struct{}

// ReconcileResult is the outcome of re-checking one pending identifier.
type ReconcileResult struct {
	Pid   Pid    `json:"pid"`
	Error string `json:"error,omitempty"`
}

type ResumeResponse struct {
	Results []ReconcileResult `json:"results"`
}

type PauseRequest struct{}

type PauseResponse struct{}
