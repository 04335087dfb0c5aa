package main

import (
	"flag"

	"AgriValue/internal/appraisal"
)

// priceWindow holds the -min/-max flags. A bound that was not given keeps
// the appraisal's default.
type priceWindow struct {
	lo, hi float64
}

func (w *priceWindow) register(fs *flag.FlagSet) {
	fs.Float64Var(&w.lo, "min", 0, "lower price bound in JPY")
	fs.Float64Var(&w.hi, "max", 0, "upper price bound in JPY")
}

// apply narrows a to the bounds set on the parsed fs.
func (w *priceWindow) apply(fs *flag.FlagSet, a *appraisal.Appraisal) *appraisal.Appraisal {
	lo, hi := a.Range.Min, a.Range.Max
	set := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min":
			lo, set = w.lo, true
		case "max":
			hi, set = w.hi, true
		}
	})
	if !set {
		return a
	}
	return a.WithRange(lo, hi)
}
