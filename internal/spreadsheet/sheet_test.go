package spreadsheet

import (
	"strings"
	"testing"
)

func TestNormalizeHeader(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Numero", "numero"},
		{"Nº Processo", "n_processo"},
		{"  Data de Encerramento ", "data_de_encerramento"},
		{"VALOR_HONORARIOS", "valor_honorarios"},
		{"Situação", "situacao"},
		{"Cliente", "cliente"},
	}
	for _, tc := range cases {
		if got := NormalizeHeader(tc.in); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestRowResolve(t *testing.T) {
	sheet := FromRecords([][]string{
		{"Cliente", "Numero"},
		{" Ana ", "123"},
	})
	if len(sheet.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(sheet.Rows))
	}
	row := sheet.Rows[0]
	if got := row.Resolve("Client", "Cliente"); got != "Ana" {
		t.Fatalf("expected Ana, got %q", got)
	}
	if got := row.Resolve("Telefone"); got != "" {
		t.Fatalf("expected empty for absent candidates, got %q", got)
	}
}

func TestFromRecordsPadsShortRows(t *testing.T) {
	sheet := FromRecords([][]string{
		{"Numero", "Cliente", "Status"},
		{"1", "Ana"},
	})
	row := sheet.Rows[0]
	if got := row.Resolve("Status"); got != "" {
		t.Fatalf("expected empty status, got %q", got)
	}
}

func TestParseCSVSemicolon(t *testing.T) {
	in := "Numero;Cliente;Valor\n123;Ana;1.234,56\n456;Bia;10,00\n"
	sheet, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(sheet.Rows))
	}
	if got := sheet.Rows[0].Resolve("Valor"); got != "1.234,56" {
		t.Fatalf("expected raw currency cell, got %q", got)
	}
}

func TestParseCSVComma(t *testing.T) {
	in := "Numero,Cliente\n123,Ana\n"
	sheet, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if got := sheet.Rows[0].Resolve("Numero"); got != "123" {
		t.Fatalf("expected 123, got %q", got)
	}
}
