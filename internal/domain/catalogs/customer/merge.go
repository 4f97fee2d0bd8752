package customer

import (
	"strings"

	"erpcore/internal/core/apperror"
)

// MergeStrategy decides how one field is combined when merging duplicates.
type MergeStrategy string

const (
	KeepTarget MergeStrategy = "keep_target"
	KeepSource MergeStrategy = "keep_source"
	Concat     MergeStrategy = "concat"
)

const concatSeparator = " | "

// Mergeable fields and their default strategies.
var mergeDefaults = map[string]MergeStrategy{
	"email":   KeepTarget,
	"phone":   KeepTarget,
	"tax_id":  KeepTarget,
	"address": Concat,
	"notes":   Concat,
}

// FieldPolicy maps field names to strategies. Missing fields use the defaults.
type FieldPolicy map[string]MergeStrategy

// Validate rejects unknown fields and strategies.
func (p FieldPolicy) Validate() error {
	for field, strategy := range p {
		if _, ok := mergeDefaults[field]; !ok {
			return apperror.NewValidation("field cannot be merged").
				WithDetail("field", field)
		}
		switch strategy {
		case KeepTarget, KeepSource, Concat:
		default:
			return apperror.NewValidation("unknown merge strategy").
				WithDetail("field", field).
				WithDetail("strategy", string(strategy))
		}
	}
	return nil
}

func (p FieldPolicy) strategy(field string) MergeStrategy {
	if s, ok := p[field]; ok {
		return s
	}
	return mergeDefaults[field]
}

// mergeValue combines a target and source value. Keep strategies fall back
// to the other side when the preferred value is empty.
func mergeValue(strategy MergeStrategy, target, source string) string {
	switch strategy {
	case KeepSource:
		if source != "" {
			return source
		}
		return target
	case Concat:
		parts := make([]string, 0, 2)
		for _, v := range []string{target, source} {
			if v = strings.TrimSpace(v); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, concatSeparator)
	default:
		if target != "" {
			return target
		}
		return source
	}
}

// absorb applies policy to target's mergeable fields using source values.
func absorb(target, source *Customer, policy FieldPolicy) {
	target.Email = mergeValue(policy.strategy("email"), target.Email, source.Email)
	target.Phone = mergeValue(policy.strategy("phone"), target.Phone, source.Phone)
	target.TaxID = mergeValue(policy.strategy("tax_id"), target.TaxID, source.TaxID)
	target.Address = mergeValue(policy.strategy("address"), target.Address, source.Address)
	target.Notes = mergeValue(policy.strategy("notes"), target.Notes, source.Notes)
}
