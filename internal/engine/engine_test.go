package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/solartrace/irradiance/internal/gisio"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

func TestRunRejectsInvalidGISTable(t *testing.T) {
	table := &gisio.Table{Rows: []gisio.Row{{Height: 10}}} // missing id/archetype/polygons
	err := Run(context.Background(), zap.NewNop(), table, mat.NewDense(1, 1, nil), Config{})

	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("got %v, want a *FatalError", err)
	}
}

func TestRunRejectsMalformedSkyMatrix(t *testing.T) {
	table := &gisio.Table{}
	raw := mat.NewDense(3, 10, nil) // wrong hour count
	err := Run(context.Background(), zap.NewNop(), table, raw, Config{NAzimuthsSky: 4, MFactor: 1})

	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("got %v, want a *FatalError", err)
	}
}

func TestFatalErrorUnwraps(t *testing.T) {
	inner := errors.New("boom")
	fe := &FatalError{Err: inner}
	if !errors.Is(fe, inner) {
		t.Error("FatalError should unwrap to its inner error")
	}
}
