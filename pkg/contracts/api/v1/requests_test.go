package api

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"uncertcli/pkg/contracts/domain"
)

func TestUncertaintyRequest_Validate(t *testing.T) {
	v := validator.New()

	tests := []struct {
		name    string
		req     UncertaintyRequest
		wantErr bool
	}{
		{name: "empty request", req: UncertaintyRequest{}},
		{name: "excel export", req: UncertaintyRequest{Export: "excel", Workers: 4}},
		{name: "unknown export", req: UncertaintyRequest{Export: "pdf"}, wantErr: true},
		{name: "too many workers", req: UncertaintyRequest{Workers: 100}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUncertaintyRequest_FormatOptions(t *testing.T) {
	off := false
	on := true

	got := UncertaintyRequest{IncludeUnits: &off, FormatResults: &on}.FormatOptions(domain.DefaultFormatOptions())
	assert.Equal(t, domain.FormatOptions{IncludeUnits: false, FormatResults: true, FormatValues: true}, got)

	assert.Equal(t, domain.DefaultFormatOptions(), UncertaintyRequest{}.FormatOptions(domain.DefaultFormatOptions()))
}

func TestUncertaintyRequest_ExportFormat(t *testing.T) {
	f, ok := UncertaintyRequest{Export: "csv"}.ExportFormat()
	assert.True(t, ok)
	assert.Equal(t, domain.ExportCSV, f)

	f, ok = UncertaintyRequest{Export: "excel"}.ExportFormat()
	assert.True(t, ok)
	assert.Equal(t, domain.ExportExcel, f)

	_, ok = UncertaintyRequest{}.ExportFormat()
	assert.False(t, ok)
}

func TestNewUncertaintyRows(t *testing.T) {
	row := domain.NewResultRow(2)
	row.Set("N", domain.NumberCell(2))
	row.Set("V(V)", domain.TextCell("2.0010 ± 0.0013 V"))
	row.MarkUnresolved("V(V)")

	rows := NewUncertaintyRows([]domain.ResultRow{row})
	assert.Len(t, rows, 1)
	assert.Equal(t, 2.0, rows[0].Group)
	assert.Equal(t, "2.0010 ± 0.0013 V", rows[0].Values["V(V)"].Text)
	assert.Equal(t, []string{"V(V)"}, rows[0].Unresolved)
}
