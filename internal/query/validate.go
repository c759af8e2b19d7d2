package query

import "github.com/kishore1288/nodenewsearch/internal/apierr"

// Validate checks f before any upstream call is made. Checks run in a fixed
// order and the first failure is returned as a validation error.
func Validate(f Filter) error {
	switch {
	case f.FolderID == nil || *f.FolderID < 0:
		return apierr.Validation("folderId must be set to a value greater than or equal to 0")
	case f.Type == nil:
		return apierr.Validation("type parameter must be set")
	case f.hasMetadata() && f.MetaClause == nil:
		return apierr.Validation("running a metadata search requires the MetaClause parameter be passed with a value")
	case f.TextOption != nil && !f.textOptionAllowed():
		return apierr.Validation(`when using TextOption param, Type must be set to either "v" or "h"`)
	case !f.hasCriteria():
		return apierr.Validation("must provide at least one search criteria")
	}
	return nil
}
