package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotHigherEducation is returned when a record does not describe higher education
	ErrNotHigherEducation = errors.New("record is not higher education")
	// ErrOwnershipConflict is returned when a write targets a row owned by someone else
	ErrOwnershipConflict = errors.New("record is owned by another writer")
	// ErrNotFound is returned when a delete, update or restore target does not exist
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned by stores when an add collides with an existing id
	ErrAlreadyExists = errors.New("record already exists")
	// ErrSelfCreatedID is returned when a custom record is created with a caller supplied id
	ErrSelfCreatedID = errors.New("custom records must not carry an id")
	// ErrOrphanProgram is returned when a program references an institution that is not stored
	ErrOrphanProgram = errors.New("program references an unknown institution")
	// ErrInvalidRecord is returned when a record misses required fields
	ErrInvalidRecord = errors.New("invalid record")
)

const (
	markerHigher        = "высшего"
	markerCollege       = "колледж"
	markerGeneralEdu    = "общеобр"
	markerHigherLevel   = "высш"
	searchNameSeparator = " "
)

// IsHigherEducationInstitution reports whether an institution passes the domain predicate:
// it is not a college or general-education organization and its full name or type mentions
// higher education.
func IsHigherEducationInstitution(inst *Institution) bool {
	fullName := strings.ToLower(inst.FullName)
	typeName := strings.ToLower(inst.TypeName)

	if strings.Contains(fullName, markerCollege) || strings.Contains(fullName, markerGeneralEdu) {
		return false
	}
	return strings.Contains(fullName, markerHigher) || strings.Contains(typeName, markerHigher)
}

// IsHigherEducationProgram reports whether the program level is higher education
func IsHigherEducationProgram(prog *Program) bool {
	return strings.Contains(strings.ToLower(prog.EduLevelName), markerHigherLevel)
}

// SearchName builds the lowercase searchable name of an institution
func SearchName(fullName, shortName string) string {
	return strings.ToLower(fullName) + searchNameSeparator + strings.ToLower(shortName)
}

// Normalize recomputes derived fields. An empty parent reference means a head organization.
func (i *Institution) Normalize() {
	i.NameSearch = SearchName(i.FullName, i.ShortName)
	if i.HeadEduOrgID != nil && strings.TrimSpace(*i.HeadEduOrgID) == "" {
		i.HeadEduOrgID = nil
	}
	if !i.Deleted {
		i.DeletionOrigin = OriginNone
	}
}

// Validate normalizes the institution and checks it may be written
func (i *Institution) Validate() error {
	if i == nil {
		return fmt.Errorf("%w: institution is nil", ErrInvalidRecord)
	}
	i.Normalize()
	if !IsHigherEducationInstitution(i) {
		return fmt.Errorf("institution %q: %w", i.ID, ErrNotHigherEducation)
	}
	return nil
}

// Normalize recomputes derived fields
func (p *Program) Normalize() {
	if !p.Deleted {
		p.DeletionOrigin = OriginNone
	}
}

// Validate normalizes the program and checks it may be written
func (p *Program) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: program is nil", ErrInvalidRecord)
	}
	p.Normalize()
	if p.InstitutionID == "" {
		return fmt.Errorf("%w: program %q has no owning institution", ErrInvalidRecord, p.ID)
	}
	if !IsHigherEducationProgram(p) {
		return fmt.Errorf("program %q: %w", p.ID, ErrNotHigherEducation)
	}
	return nil
}

// IsDomainRejection reports whether err is an expected rejection that must not abort a batch
func IsDomainRejection(err error) bool {
	return errors.Is(err, ErrNotHigherEducation) || errors.Is(err, ErrOrphanProgram)
}
