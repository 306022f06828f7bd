package snapshot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stacklok/accreg-sync/internal/registry"
)

type xmlOrganization struct {
	ID                  string `xml:"Id"`
	FullName            string `xml:"FullName"`
	ShortName           string `xml:"ShortName"`
	HeadEduOrgID        string `xml:"HeadEduOrgId"`
	IsBranch            string `xml:"IsBranch"`
	PostAddress         string `xml:"PostAddress"`
	Phone               string `xml:"Phone"`
	Fax                 string `xml:"Fax"`
	Email               string `xml:"Email"`
	WebSite             string `xml:"WebSite"`
	OGRN                string `xml:"OGRN"`
	INN                 string `xml:"INN"`
	KPP                 string `xml:"KPP"`
	HeadPost            string `xml:"HeadPost"`
	HeadName            string `xml:"HeadName"`
	FormName            string `xml:"FormName"`
	KindName            string `xml:"KindName"`
	TypeName            string `xml:"TypeName"`
	RegionName          string `xml:"RegionName"`
	FederalDistrictName string `xml:"FederalDistrictName"`
}

type xmlProgram struct {
	ID                 string `xml:"Id"`
	TypeName           string `xml:"TypeName"`
	EduLevelName       string `xml:"EduLevelName"`
	ProgramName        string `xml:"ProgrammName"`
	ProgramCode        string `xml:"ProgrammCode"`
	UGSName            string `xml:"UGSName"`
	UGSCode            string `xml:"UGSCode"`
	EduNormativePeriod string `xml:"EduNormativePeriod"`
	Qualification      string `xml:"Qualification"`
	IsAccredited       string `xml:"IsAccredited"`
	IsCanceled         string `xml:"IsCanceled"`
	IsSuspended        string `xml:"IsSuspended"`
}

type xmlSupplement struct {
	StatusName   string          `xml:"StatusName"`
	Organization xmlOrganization `xml:"ActualEducationOrganization"`
	Programs     []xmlProgram    `xml:"EducationalPrograms>EducationalProgram"`
}

type xmlCertificate struct {
	StatusName   string          `xml:"StatusName"`
	EndDate      string          `xml:"EndDate"`
	Organization xmlOrganization `xml:"ActualEducationOrganization"`
	Supplements  []xmlSupplement `xml:"Supplements>Supplement"`
}

func (o *xmlOrganization) toInstitution() (*registry.Institution, error) {
	isBranch, err := parseFlag(o.IsBranch)
	if err != nil {
		return nil, fmt.Errorf("organization %q: IsBranch: %w", o.ID, err)
	}

	inst := &registry.Institution{
		ID:                  strings.TrimSpace(o.ID),
		FullName:            o.FullName,
		ShortName:           o.ShortName,
		IsBranch:            isBranch,
		PostAddress:         o.PostAddress,
		Phone:               o.Phone,
		Fax:                 o.Fax,
		Email:               o.Email,
		WebSite:             o.WebSite,
		OGRN:                o.OGRN,
		INN:                 o.INN,
		KPP:                 o.KPP,
		HeadPost:            o.HeadPost,
		HeadName:            o.HeadName,
		FormName:            o.FormName,
		KindName:            o.KindName,
		TypeName:            o.TypeName,
		RegionName:          o.RegionName,
		FederalDistrictName: o.FederalDistrictName,
	}
	if head := strings.TrimSpace(o.HeadEduOrgID); head != "" {
		inst.HeadEduOrgID = &head
	}
	inst.Normalize()

	return inst, nil
}

func (p *xmlProgram) toProgram(institutionID string) (*registry.Program, error) {
	// The source flag is set when the program is NOT accredited.
	notAccredited, err := parseFlag(p.IsAccredited)
	if err != nil {
		return nil, fmt.Errorf("program %q: IsAccredited: %w", p.ID, err)
	}
	canceled, err := parseFlag(p.IsCanceled)
	if err != nil {
		return nil, fmt.Errorf("program %q: IsCanceled: %w", p.ID, err)
	}
	suspended, err := parseFlag(p.IsSuspended)
	if err != nil {
		return nil, fmt.Errorf("program %q: IsSuspended: %w", p.ID, err)
	}

	prog := &registry.Program{
		ID:                 strings.TrimSpace(p.ID),
		TypeName:           p.TypeName,
		EduLevelName:       p.EduLevelName,
		ProgramName:        p.ProgramName,
		ProgramCode:        p.ProgramCode,
		UGSName:            p.UGSName,
		UGSCode:            p.UGSCode,
		EduNormativePeriod: p.EduNormativePeriod,
		Qualification:      p.Qualification,
		IsAccredited:       !notAccredited,
		IsCanceled:         canceled,
		IsSuspended:        suspended,
		InstitutionID:      institutionID,
	}
	prog.Normalize()

	return prog, nil
}

// parseFlag reads the registry integer flags. Missing and empty values are zero.
func parseFlag(value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n != 0, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid flag value %q", value)
	}
	return b, nil
}
