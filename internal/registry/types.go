package registry

import "time"

// Kind identifies the table a record belongs to
type Kind string

const (
	// KindInstitution is an educational organization
	KindInstitution Kind = "institution"
	// KindProgram is an educational program of an institution
	KindProgram Kind = "program"
)

// DeletionOrigin records which path soft-deleted a row
type DeletionOrigin string

const (
	// OriginNone is set on rows that are not deleted
	OriginNone DeletionOrigin = ""
	// OriginAdmin marks a soft delete issued by an administrative call
	OriginAdmin DeletionOrigin = "admin"
	// OriginRegistry marks a row retired by a registry pass
	OriginRegistry DeletionOrigin = "registry"
)

// Institution is an educational organization from the registry or created by an administrator
type Institution struct {
	ID                  string         `json:"id"`
	FullName            string         `json:"full_name"`
	ShortName           string         `json:"short_name"`
	HeadEduOrgID        *string        `json:"head_edu_org_id,omitempty"`
	IsBranch            bool           `json:"is_branch"`
	PostAddress         string         `json:"post_address"`
	Phone               string         `json:"phone"`
	Fax                 string         `json:"fax"`
	Email               string         `json:"email"`
	WebSite             string         `json:"web_site"`
	OGRN                string         `json:"ogrn"`
	INN                 string         `json:"inn"`
	KPP                 string         `json:"kpp"`
	HeadPost            string         `json:"head_post"`
	HeadName            string         `json:"head_name"`
	FormName            string         `json:"form_name"`
	KindName            string         `json:"kind_name"`
	TypeName            string         `json:"type_name"`
	RegionName          string         `json:"region_name"`
	FederalDistrictName string         `json:"federal_district_name"`
	NameSearch          string         `json:"-"`
	Custom              bool           `json:"custom"`
	Deleted             bool           `json:"deleted"`
	DeletionOrigin      DeletionOrigin `json:"deletion_origin,omitempty"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// Program is an educational program owned by an institution
type Program struct {
	ID                 string         `json:"id"`
	TypeName           string         `json:"type_name"`
	EduLevelName       string         `json:"edu_level_name"`
	ProgramName        string         `json:"program_name"`
	ProgramCode        string         `json:"program_code"`
	UGSName            string         `json:"ugs_name"`
	UGSCode            string         `json:"ugs_code"`
	EduNormativePeriod string         `json:"edu_normative_period"`
	Qualification      string         `json:"qualification"`
	IsAccredited       bool           `json:"is_accredited"`
	IsCanceled         bool           `json:"is_canceled"`
	IsSuspended        bool           `json:"is_suspended"`
	InstitutionID      string         `json:"institution_id"`
	Custom             bool           `json:"custom"`
	Deleted            bool           `json:"deleted"`
	DeletionOrigin     DeletionOrigin `json:"deletion_origin,omitempty"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Lookup names the derived value lists used by search filters
type Lookup string

const (
	// LookupRegions lists distinct institution regions
	LookupRegions Lookup = "regions"
	// LookupUGSCodes lists distinct enlarged specialty group codes
	LookupUGSCodes Lookup = "ugs-codes"
	// LookupProgramCodes lists distinct program codes
	LookupProgramCodes Lookup = "program-codes"
)

// AllLookups returns every lookup list name
func AllLookups() []Lookup {
	return []Lookup{LookupRegions, LookupUGSCodes, LookupProgramCodes}
}

// ParseLookup converts a lookup name into a Lookup
func ParseLookup(name string) (Lookup, bool) {
	for _, l := range AllLookups() {
		if string(l) == name {
			return l, true
		}
	}
	return "", false
}
