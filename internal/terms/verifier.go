// Package terms checks which legal policies of a server an account still has to accept.
package terms

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/and161185/discokeeper/internal/model"
)

// DefaultLanguage is used when neither the requested language nor its base language is published.
const DefaultLanguage = "en"

//go:generate mockgen -source=verifier.go -destination=mocks/mock_service.go -package=mocks Service

// Service fetches the declared policies of a server together with the account's accepted URLs.
type Service interface {
	GetTerms(ctx context.Context, serviceType model.ServiceType, baseURL string) (*model.TermsResponse, error)
}

// Verifier wraps a single terms request and classifies its result. It never retries.
type Verifier struct {
	svc Service
}

// NewVerifier constructs a Verifier over svc.
func NewVerifier(svc Service) *Verifier { return &Verifier{svc: svc} }

// Check fetches the terms of baseURL and compares the documents localized for language
// against the accepted set.
func (v *Verifier) Check(ctx context.Context, serviceType model.ServiceType, baseURL, language string) (model.TermsOutcome, error) {
	resp, err := v.svc.GetTerms(ctx, serviceType, baseURL)
	if err != nil {
		return model.TermsOutcome{}, fmt.Errorf("get terms: %w", err)
	}
	if resp == nil {
		return model.TermsOutcome{}, fmt.Errorf("get terms: empty response")
	}
	return Evaluate(resp, language), nil
}

// Evaluate derives the outcome of a terms response for language.
func Evaluate(resp *model.TermsResponse, language string) model.TermsOutcome {
	accepted := make(map[string]struct{}, len(resp.AlreadyAccepted))
	for _, u := range resp.AlreadyAccepted {
		accepted[u] = struct{}{}
	}

	names := make([]string, 0, len(resp.Policies))
	for name := range resp.Policies {
		names = append(names, name)
	}
	sort.Strings(names)

	found := false
	seen := map[string]struct{}{}
	var pending []string
	for _, name := range names {
		doc, ok := Localize(resp.Policies[name], language)
		if !ok {
			continue
		}
		found = true
		if _, ok := accepted[doc.URL]; ok {
			continue
		}
		if _, dup := seen[doc.URL]; dup {
			continue
		}
		seen[doc.URL] = struct{}{}
		pending = append(pending, doc.URL)
	}

	switch {
	case !found:
		return model.TermsOutcome{Kind: model.TermsNotDefined}
	case len(pending) == 0:
		return model.TermsOutcome{Kind: model.TermsAlreadyAccepted}
	default:
		sort.Strings(pending)
		return model.TermsOutcome{Kind: model.TermsNeedAcceptance, PendingURLs: pending}
	}
}

// Localize selects the document of p for language.
// Order: exact tag, base language ("en-GB" -> "en"), DefaultLanguage, first tag in sorted order.
// Documents without a URL are ignored.
func Localize(p model.Policy, language string) (model.PolicyDocument, bool) {
	docs := make(map[string]model.PolicyDocument, len(p.Localized))
	for tag, d := range p.Localized {
		docs[normalizeTag(tag)] = d
	}
	pick := func(tag string) (model.PolicyDocument, bool) {
		d, ok := docs[tag]
		return d, ok && d.URL != ""
	}

	lang := normalizeTag(language)
	if d, ok := pick(lang); ok {
		return d, true
	}
	if i := strings.IndexByte(lang, '-'); i > 0 {
		if d, ok := pick(lang[:i]); ok {
			return d, true
		}
	}
	if d, ok := pick(DefaultLanguage); ok {
		return d, true
	}

	tags := make([]string, 0, len(docs))
	for tag := range docs {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		if d, ok := pick(tag); ok {
			return d, true
		}
	}
	return model.PolicyDocument{}, false
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
}
