package model

// ServiceType selects which terms a server is asked for.
type ServiceType string

const (
	ServiceIdentity    ServiceType = "identity_service"
	ServiceIntegration ServiceType = "integration_manager"
)

// PolicyDocument is one localized policy text.
type PolicyDocument struct {
	Name string
	URL  string
}

// Policy is a named policy with its localized documents keyed by language tag.
type Policy struct {
	Version   string
	Localized map[string]PolicyDocument
}

// TermsResponse is what a terms service reports for a server and account.
type TermsResponse struct {
	Policies        map[string]Policy
	AlreadyAccepted []string
}

// TermsOutcomeKind classifies a terms check.
type TermsOutcomeKind int

const (
	TermsNotDefined TermsOutcomeKind = iota
	TermsNeedAcceptance
	TermsAlreadyAccepted
)

func (k TermsOutcomeKind) String() string {
	switch k {
	case TermsNeedAcceptance:
		return "needs_acceptance"
	case TermsAlreadyAccepted:
		return "already_accepted"
	default:
		return "no_terms"
	}
}

// TermsOutcome is the result of one terms check.
type TermsOutcome struct {
	Kind        TermsOutcomeKind
	PendingURLs []string // set only for TermsNeedAcceptance
}

// NavigationKind is the terminal decision of an identity server submit.
type NavigationKind int

const (
	ProceedNoTerms NavigationKind = iota
	PromptShowTerms
	ProceedTermsAccepted
)

func (k NavigationKind) String() string {
	switch k {
	case PromptShowTerms:
		return "show_terms"
	case ProceedTermsAccepted:
		return "terms_accepted"
	default:
		return "no_terms"
	}
}

// NavigationOutcome is emitted after a successful terms check.
type NavigationOutcome struct {
	Kind        NavigationKind
	Server      string   // sanitized identity server URL
	PendingURLs []string // set only for PromptShowTerms
}

// ChangeServerState is an immutable snapshot of the identity server change screen.
type ChangeServerState struct {
	ExistingServer string
	Candidate      string
	Err            error
	IsVerifying    bool
}

// ConfirmationRequired is returned instead of mutating when bound identifiers would be orphaned.
type ConfirmationRequired struct {
	CurrentServer   string
	CandidateServer string // "" for a disconnect
}

// ChangeResult is the result of a gated identity server change.
type ChangeResult struct {
	Confirmation *ConfirmationRequired
	Navigation   *NavigationOutcome
	Applied      bool
	Server       string // configured server after the call
}
