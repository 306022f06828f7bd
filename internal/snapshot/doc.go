// Package snapshot decodes the registry open data XML dump into institution and
// program records.
//
// The dump is a single document of the form
//
//	Certificates/Certificate[StatusName, EndDate, ActualEducationOrganization,
//	    Supplements/Supplement[StatusName, ActualEducationOrganization,
//	        EducationalPrograms/EducationalProgram]]
//
// Certificates are decoded one at a time so memory stays bounded by the
// produced records rather than the document tree. Parsing never touches the
// store; the result is handed to the reconciler as fully materialized slices
// because deletions need complete membership.
package snapshot
