package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstitutionValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		inst    *Institution
		wantErr error
	}{
		{
			name: "higher_education_in_full_name_passes",
			inst: NewTestInstitution("U1"),
		},
		{
			name: "higher_education_only_in_type_name_passes",
			inst: NewTestInstitution("U2",
				WithFullName("Московский государственный университет"),
				WithTypeName("Образовательная организация высшего образования"),
			),
		},
		{
			name: "college_is_rejected",
			inst: NewTestInstitution("U3",
				WithFullName("Колледж высшего мастерства"),
			),
			wantErr: ErrNotHigherEducation,
		},
		{
			name: "general_education_is_rejected",
			inst: NewTestInstitution("U4",
				WithFullName("Общеобразовательная школа при университете высшего образования"),
			),
			wantErr: ErrNotHigherEducation,
		},
		{
			name: "missing_higher_education_marker_is_rejected",
			inst: NewTestInstitution("U5",
				WithFullName("Институт повышения квалификации"),
				WithTypeName("Организация дополнительного профессионального образования"),
			),
			wantErr: ErrNotHigherEducation,
		},
		{
			name:    "nil_institution_is_invalid",
			inst:    nil,
			wantErr: ErrInvalidRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.inst.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestInstitutionNormalize(t *testing.T) {
	t.Parallel()

	empty := "  "
	inst := &Institution{
		ID:             "U1",
		FullName:       "Университет ВЫСШЕГО Образования",
		ShortName:      "УВО",
		HeadEduOrgID:   &empty,
		DeletionOrigin: OriginAdmin,
	}

	inst.Normalize()

	assert.Equal(t, "университет высшего образования уво", inst.NameSearch)
	assert.Nil(t, inst.HeadEduOrgID)
	assert.Equal(t, OriginNone, inst.DeletionOrigin, "origin is cleared on live rows")

	head := "H1"
	inst.HeadEduOrgID = &head
	inst.FullName = "Другое название высшего образования"
	require.NoError(t, inst.Validate())
	assert.Equal(t, "другое название высшего образования уво", inst.NameSearch)
	require.NotNil(t, inst.HeadEduOrgID)
	assert.Equal(t, "H1", *inst.HeadEduOrgID)
}

func TestProgramValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		prog    *Program
		wantErr error
	}{
		{
			name: "bachelor_passes",
			prog: NewTestProgram("P1", "U1"),
		},
		{
			name: "postgraduate_passes",
			prog: NewTestProgram("P2", "U1", WithLevel("Высшее образование - подготовка кадров высшей квалификации")),
		},
		{
			name:    "secondary_vocational_is_rejected",
			prog:    NewTestProgram("P3", "U1", WithLevel("Среднее профессиональное образование")),
			wantErr: ErrNotHigherEducation,
		},
		{
			name:    "missing_owner_is_invalid",
			prog:    NewTestProgram("P4", ""),
			wantErr: ErrInvalidRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.prog.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestIsDomainRejection(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDomainRejection(NewTestProgram("P1", "U1", WithLevel("Среднее")).Validate()))
	assert.True(t, IsDomainRejection(ErrOrphanProgram))
	assert.False(t, IsDomainRejection(ErrOwnershipConflict))
	assert.False(t, IsDomainRejection(nil))
}

func TestParseLookup(t *testing.T) {
	t.Parallel()

	l, ok := ParseLookup("regions")
	assert.True(t, ok)
	assert.Equal(t, LookupRegions, l)

	_, ok = ParseLookup("unknown")
	assert.False(t, ok)
}
