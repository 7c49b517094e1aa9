package site

import (
	"errors"
	"strings"
	"testing"
)

func TestKindExitCode(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindParse, 2},
		{KindMetadata, 2},
		{KindDuplicateSlug, 3},
		{KindBrokenRef, 4},
		{KindRender, 5},
	}
	for _, tc := range cases {
		if got := tc.kind.ExitCode(); got != tc.want {
			t.Fatalf("%s.ExitCode() = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestDiagnosticString(t *testing.T) {
	diag := Diagnostic{
		Kind:   KindBrokenRef,
		Path:   "posts/a.md",
		Target: "missing-slug",
		Err:    errors.New("no post registered"),
	}

	got := diag.String()
	for _, fragment := range []string{"broken_ref", "posts/a.md", "target=missing-slug", "no post registered"} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("expected %q in %q", fragment, got)
		}
	}
}

func TestDiagnosticListExitCode_EarliestStageWins(t *testing.T) {
	list := DiagnosticList{
		{Kind: KindRender},
		{Kind: KindMetadata},
		{Kind: KindBrokenRef},
	}
	if got := list.ExitCode(); got != 2 {
		t.Fatalf("expected earliest stage exit code 2, got %d", got)
	}
}

func TestDiagnosticListExitCode_IgnoresWarnings(t *testing.T) {
	list := DiagnosticList{
		{Kind: KindLint, Warning: true},
		{Kind: KindBrokenRef, Warning: true},
		{Kind: KindRender},
	}
	if got := list.ExitCode(); got != 5 {
		t.Fatalf("expected render exit code 5, got %d", got)
	}
}

func TestDiagnosticListPartitions(t *testing.T) {
	list := DiagnosticList{
		{Kind: KindParse},
		{Kind: KindLint, Warning: true},
	}
	if len(list.Fatal()) != 1 || len(list.Warnings()) != 1 {
		t.Fatalf("unexpected partition: fatal=%d warnings=%d", len(list.Fatal()), len(list.Warnings()))
	}
	if !list.HasFatal() {
		t.Fatalf("expected fatal diagnostics present")
	}
	if !strings.Contains(list.Error(), "1 build error(s)") {
		t.Fatalf("unexpected error text: %q", list.Error())
	}
}

func TestDiagnosticListLeadKind(t *testing.T) {
	diags := DiagnosticList{
		{Kind: KindRender},
		{Kind: KindParse, Warning: true},
		{Kind: KindBrokenRef},
	}
	if got := diags.LeadKind(); got != KindBrokenRef {
		t.Fatalf("LeadKind = %v, want %v", got, KindBrokenRef)
	}
	if got := (DiagnosticList{}).LeadKind(); got != 0 {
		t.Fatalf("LeadKind of empty list = %v, want 0", got)
	}
}
