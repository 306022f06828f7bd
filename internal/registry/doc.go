// Package registry contains the domain model of the accreditation registry:
// institutions and their educational programs, the ownership and deletion
// flags that govern how registry passes may touch them, and the higher
// education predicate every write has to satisfy.
//
// # Ownership
//
// Rows are either registry-owned (Custom == false) or custom (Custom == true).
// Registry passes create, update and delete registry-owned rows only; custom
// rows belong to administrative edits.
//
// # Deletion
//
// A soft-deleted row keeps Deleted == true and records who deleted it in
// DeletionOrigin:
//
//   - OriginAdmin: an administrative delete. A later snapshot never revives it.
//   - OriginRegistry: a registry pass retired the row instead of removing it
//     because custom rows still depend on it. A later snapshot revives it.
//
// # Validation
//
// Validate must be called immediately before every add or update. It
// normalizes the derived fields (see Normalize) and rejects records that are
// not higher education with ErrNotHigherEducation.
//
// # Test Utilities
//
// NewTestInstitution and NewTestProgram build valid records with options:
//
//	inst := registry.NewTestInstitution("U1",
//	    registry.WithRegion("Москва"),
//	    registry.WithCustom(),
//	)
package registry
