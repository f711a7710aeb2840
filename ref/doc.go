// Package ref implements compiled path references over a listree.Value
// tree: REF_create/REF_resolve/REF_ltv/REF_lti/REF_assign/REF_remove/
// REF_iterate from spec.md §4.B, grounded on original_source/edict.c's
// edict_name/edict_ref/edict_delimit path-walking logic.
package ref
