// Package filtering decides, without any I/O, which update messages are
// sent for enrichment and why the others are skipped.
package filtering

import (
	"fmt"
	"strings"

	"enrichsync/internal/constants"
	"enrichsync/internal/crm"
	"enrichsync/internal/enrichment/provider"
	"enrichsync/internal/install"
)

// FilterUserMessages classifies user updates in input order. Batch replays
// bypass the segment whitelist.
func FilterUserMessages(settings install.PrivateSettings, messages []crm.UserUpdateMessage, isBatch bool) FilteredUsers {
	var result FilteredUsers
	lookupAttr := settings.EnrichmentUserLookupSocialURL

	for _, msg := range messages {
		envelope := UserEnvelope{
			Message:    msg,
			ObjectType: constants.ObjectTypeUser,
		}
		if isBatch {
			envelope.Notes = append(envelope.Notes, BatchSkipsSegmentFilter(constants.ObjectTypeUser))
		}

		if !isBatch && !isInAnySegment(msg.Segments, settings.EnrichmentUserSynchronizedSegments) {
			envelope.Operation = constants.OperationSkip
			envelope.Notes = append(envelope.Notes, NotInAnySegment(constants.ObjectTypeUser))
			result.Skips = append(result.Skips, envelope)
			continue
		}

		raw, ok := lookupValue(crm.ReadAttribute(msg.User, lookupAttr))
		if !ok {
			envelope.Operation = constants.OperationSkip
			envelope.Notes = append(envelope.Notes, MissingLookupURL(lookupAttr))
			result.Skips = append(result.Skips, envelope)
			continue
		}

		envelope.Operation = constants.OperationEnrich
		envelope.ServiceObject = &provider.LookupRequest{URL: SanitizeURL(raw)}
		result.Actionables = append(result.Actionables, envelope)
	}

	return result
}

// FilterAccountMessages classifies account updates for the domain search.
func FilterAccountMessages(settings install.PrivateSettings, messages []crm.AccountUpdateMessage, isBatch bool) FilteredAccounts {
	var result FilteredAccounts

	for _, msg := range messages {
		envelope := AccountEnvelope{
			Message:    msg,
			ObjectType: constants.ObjectTypeAccount,
		}
		if isBatch {
			envelope.Notes = append(envelope.Notes, BatchSkipsSegmentFilter(constants.ObjectTypeAccount))
		}

		if !isBatch && !isInAnySegment(msg.AccountSegments, settings.EmailsAccountSynchronizedSegments) {
			envelope.Operation = constants.OperationSkip
			envelope.Notes = append(envelope.Notes, NotInAnySegment(constants.ObjectTypeAccount))
			result.Skips = append(result.Skips, envelope)
			continue
		}

		raw, ok := lookupValue(crm.ReadAttribute(msg.Account, "domain"))
		domain := NormalizeDomain(raw)
		if !ok || domain == "" {
			envelope.Operation = constants.OperationSkip
			envelope.Notes = append(envelope.Notes, MissingDomain)
			result.Skips = append(result.Skips, envelope)
			continue
		}

		envelope.Operation = constants.OperationEnrich
		envelope.ServiceObject = &provider.DomainSearchParams{
			Domain: domain,
			Type:   constants.DomainSearchType,
			Limit:  constants.DomainSearchSize,
		}
		result.Actionables = append(result.Actionables, envelope)
	}

	return result
}

func isInAnySegment(actual []crm.Segment, whitelist []string) bool {
	if len(whitelist) == 0 {
		return false
	}

	allowed := make(map[string]struct{}, len(whitelist))
	for _, id := range whitelist {
		allowed[id] = struct{}{}
	}
	for _, id := range crm.SegmentIDs(actual) {
		if _, ok := allowed[id]; ok {
			return true
		}
	}
	return false
}

// lookupValue treats null and blank strings as absent.
func lookupValue(v interface{}) (string, bool) {
	if v == nil {
		return "", false
	}

	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
