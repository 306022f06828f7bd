package registry

// InstitutionOption configures an Institution built for tests
type InstitutionOption func(*Institution)

// ProgramOption configures a Program built for tests
type ProgramOption func(*Program)

// NewTestInstitution creates a valid higher education institution with the given id
// and applies any provided options
func NewTestInstitution(id string, opts ...InstitutionOption) *Institution {
	inst := &Institution{
		ID:                  id,
		FullName:            "Федеральное государственное бюджетное образовательное учреждение высшего образования " + id,
		ShortName:           "ВУЗ " + id,
		PostAddress:         "г. Москва",
		TypeName:            "Образовательная организация высшего образования",
		KindName:            "Университет",
		FormName:            "Федеральное государственное бюджетное учреждение",
		RegionName:          "Москва",
		FederalDistrictName: "Центральный федеральный округ",
	}

	for _, opt := range opts {
		opt(inst)
	}
	inst.Normalize()

	return inst
}

// WithFullName sets the institution full name
func WithFullName(name string) InstitutionOption {
	return func(i *Institution) {
		i.FullName = name
	}
}

// WithTypeName sets the institution type name
func WithTypeName(name string) InstitutionOption {
	return func(i *Institution) {
		i.TypeName = name
	}
}

// WithRegion sets the institution region
func WithRegion(region string) InstitutionOption {
	return func(i *Institution) {
		i.RegionName = region
	}
}

// WithHead marks the institution as a branch of head
func WithHead(head string) InstitutionOption {
	return func(i *Institution) {
		i.HeadEduOrgID = &head
		i.IsBranch = true
	}
}

// WithCustom marks the institution as custom
func WithCustom() InstitutionOption {
	return func(i *Institution) {
		i.Custom = true
	}
}

// WithDeleted marks the institution as soft-deleted by origin
func WithDeleted(origin DeletionOrigin) InstitutionOption {
	return func(i *Institution) {
		i.Deleted = true
		i.DeletionOrigin = origin
	}
}

// NewTestProgram creates a valid higher education program owned by institutionID
// and applies any provided options
func NewTestProgram(id, institutionID string, opts ...ProgramOption) *Program {
	prog := &Program{
		ID:                 id,
		TypeName:           "Основная образовательная программа",
		EduLevelName:       "Высшее образование - бакалавриат",
		ProgramName:        "Программная инженерия",
		ProgramCode:        "09.03.04",
		UGSName:            "Информатика и вычислительная техника",
		UGSCode:            "09.00.00",
		EduNormativePeriod: "4 г.",
		Qualification:      "Бакалавр",
		IsAccredited:       true,
		InstitutionID:      institutionID,
	}

	for _, opt := range opts {
		opt(prog)
	}
	prog.Normalize()

	return prog
}

// WithLevel sets the program education level
func WithLevel(level string) ProgramOption {
	return func(p *Program) {
		p.EduLevelName = level
	}
}

// WithCodes sets the program and UGS codes
func WithCodes(programCode, ugsCode string) ProgramOption {
	return func(p *Program) {
		p.ProgramCode = programCode
		p.UGSCode = ugsCode
	}
}

// WithCustomProgram marks the program as custom
func WithCustomProgram() ProgramOption {
	return func(p *Program) {
		p.Custom = true
	}
}

// WithDeletedProgram marks the program as soft-deleted by origin
func WithDeletedProgram(origin DeletionOrigin) ProgramOption {
	return func(p *Program) {
		p.Deleted = true
		p.DeletionOrigin = origin
	}
}
