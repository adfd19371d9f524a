// Package filter removes records that cannot contribute to aggregate metrics.
//
// The steps run in a fixed order: records whose ids stayed corrupted after
// repair are dropped, subjects with too large a share of missing emotion
// readings are removed entirely, remaining records with a missing reading are
// dropped, and the result is sorted into canonical order and deduplicated.
package filter
