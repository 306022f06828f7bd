package postgres

import (
	"github.com/stacklok/accreg-sync/internal/db/sqlc"
	"github.com/stacklok/accreg-sync/internal/registry"
)

func institutionFromRow(row sqlc.Institution) *registry.Institution {
	return &registry.Institution{
		ID:                  row.ID,
		FullName:            row.FullName,
		ShortName:           row.ShortName,
		HeadEduOrgID:        row.HeadEduOrgID,
		IsBranch:            row.IsBranch,
		PostAddress:         row.PostAddress,
		Phone:               row.Phone,
		Fax:                 row.Fax,
		Email:               row.Email,
		WebSite:             row.WebSite,
		OGRN:                row.Ogrn,
		INN:                 row.Inn,
		KPP:                 row.Kpp,
		HeadPost:            row.HeadPost,
		HeadName:            row.HeadName,
		FormName:            row.FormName,
		KindName:            row.KindName,
		TypeName:            row.TypeName,
		RegionName:          row.RegionName,
		FederalDistrictName: row.FederalDistrictName,
		NameSearch:          row.NameSearch,
		Custom:              row.Custom,
		Deleted:             row.Deleted,
		DeletionOrigin:      registry.DeletionOrigin(row.DeletionOrigin),
		UpdatedAt:           row.UpdatedAt,
	}
}

func insertInstitutionParams(inst *registry.Institution) sqlc.InsertInstitutionParams {
	return sqlc.InsertInstitutionParams{
		ID:                  inst.ID,
		FullName:            inst.FullName,
		ShortName:           inst.ShortName,
		HeadEduOrgID:        inst.HeadEduOrgID,
		IsBranch:            inst.IsBranch,
		PostAddress:         inst.PostAddress,
		Phone:               inst.Phone,
		Fax:                 inst.Fax,
		Email:               inst.Email,
		WebSite:             inst.WebSite,
		Ogrn:                inst.OGRN,
		Inn:                 inst.INN,
		Kpp:                 inst.KPP,
		HeadPost:            inst.HeadPost,
		HeadName:            inst.HeadName,
		FormName:            inst.FormName,
		KindName:            inst.KindName,
		TypeName:            inst.TypeName,
		RegionName:          inst.RegionName,
		FederalDistrictName: inst.FederalDistrictName,
		NameSearch:          inst.NameSearch,
		Custom:              inst.Custom,
		Deleted:             inst.Deleted,
		DeletionOrigin:      string(inst.DeletionOrigin),
	}
}

func updateInstitutionParams(inst *registry.Institution) sqlc.UpdateInstitutionParams {
	p := insertInstitutionParams(inst)
	return sqlc.UpdateInstitutionParams{
		FullName:            p.FullName,
		ShortName:           p.ShortName,
		HeadEduOrgID:        p.HeadEduOrgID,
		IsBranch:            p.IsBranch,
		PostAddress:         p.PostAddress,
		Phone:               p.Phone,
		Fax:                 p.Fax,
		Email:               p.Email,
		WebSite:             p.WebSite,
		Ogrn:                p.Ogrn,
		Inn:                 p.Inn,
		Kpp:                 p.Kpp,
		HeadPost:            p.HeadPost,
		HeadName:            p.HeadName,
		FormName:            p.FormName,
		KindName:            p.KindName,
		TypeName:            p.TypeName,
		RegionName:          p.RegionName,
		FederalDistrictName: p.FederalDistrictName,
		NameSearch:          p.NameSearch,
		Custom:              p.Custom,
		Deleted:             p.Deleted,
		DeletionOrigin:      p.DeletionOrigin,
		ID:                  p.ID,
	}
}

func programFromRow(row sqlc.Program) *registry.Program {
	return &registry.Program{
		ID:                 row.ID,
		TypeName:           row.TypeName,
		EduLevelName:       row.EduLevelName,
		ProgramName:        row.ProgramName,
		ProgramCode:        row.ProgramCode,
		UGSName:            row.UgsName,
		UGSCode:            row.UgsCode,
		EduNormativePeriod: row.EduNormativePeriod,
		Qualification:      row.Qualification,
		IsAccredited:       row.IsAccredited,
		IsCanceled:         row.IsCanceled,
		IsSuspended:        row.IsSuspended,
		InstitutionID:      row.InstitutionID,
		Custom:             row.Custom,
		Deleted:            row.Deleted,
		DeletionOrigin:     registry.DeletionOrigin(row.DeletionOrigin),
		UpdatedAt:          row.UpdatedAt,
	}
}

func insertProgramParams(prog *registry.Program) sqlc.InsertProgramParams {
	return sqlc.InsertProgramParams{
		ID:                 prog.ID,
		TypeName:           prog.TypeName,
		EduLevelName:       prog.EduLevelName,
		ProgramName:        prog.ProgramName,
		ProgramCode:        prog.ProgramCode,
		UgsName:            prog.UGSName,
		UgsCode:            prog.UGSCode,
		EduNormativePeriod: prog.EduNormativePeriod,
		Qualification:      prog.Qualification,
		IsAccredited:       prog.IsAccredited,
		IsCanceled:         prog.IsCanceled,
		IsSuspended:        prog.IsSuspended,
		InstitutionID:      prog.InstitutionID,
		Custom:             prog.Custom,
		Deleted:            prog.Deleted,
		DeletionOrigin:     string(prog.DeletionOrigin),
	}
}

func updateProgramParams(prog *registry.Program) sqlc.UpdateProgramParams {
	return sqlc.UpdateProgramParams(insertProgramParams(prog))
}
