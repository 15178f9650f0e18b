// Package rrl models hazard indicator records and computes their
// Resilience Readiness Level (RRL).
//
// Each hazard is one variant of the Record sum type. A variant owns its field
// set, its bounds (declared as validate tags) and its formula. Computing a
// score is pure: the record is never mutated.
package rrl

import (
	"math"

	"github.com/mres-project/mres/schema"
)

// Record is the indicator input of one building for exactly one hazard.
// The concrete types are *Heat, *Seismic, *Wind and *Flood.
type Record interface {
	// Hazard returns the hazard this record belongs to.
	Hazard() schema.Hazard

	// BuildingID returns the identifier joining the record to a feature.
	BuildingID() int

	// Compute returns the RRL for this record.
	Compute() float64

	isRecord()
}

// Heat holds heat indicators. Every field is bounded to (0,1].
type Heat struct {
	ID   int     `field:"id"`
	Res1 float64 `field:"res_1" validate:"gt=0,lte=1"`
	Res2 float64 `field:"res_2" validate:"gt=0,lte=1"`
	Res3 float64 `field:"res_3" validate:"gt=0,lte=1"`
	Rec1 float64 `field:"rec_1" validate:"gt=0,lte=1"`
	EF   float64 `field:"e_f" validate:"gt=0,lte=1"`
	M1   float64 `field:"m_1" validate:"gt=0,lte=1"`
	M2   float64 `field:"m_2" validate:"gt=0,lte=1"`
}

// Seismic holds seismic indicators. Every field is bounded to [0,1].
type Seismic struct {
	ID   int     `field:"id"`
	Res1 float64 `field:"res_1" validate:"gte=0,lte=1"`
	Res2 float64 `field:"res_2" validate:"gte=0,lte=1"`
	Res3 float64 `field:"res_3" validate:"gte=0,lte=1"`
	Res4 float64 `field:"res_4" validate:"gte=0,lte=1"`
	Rec1 float64 `field:"rec_1" validate:"gte=0,lte=1"`
	Rec2 float64 `field:"rec_2" validate:"gte=0,lte=1"`
	Rec3 float64 `field:"rec_3" validate:"gte=0,lte=1"`
	N1   float64 `field:"n_1" validate:"gte=0,lte=1"`
	N2   float64 `field:"n_2" validate:"gte=0,lte=1"`
	N3   float64 `field:"n_3" validate:"gte=0,lte=1"`
	N4   float64 `field:"n_4" validate:"gte=0,lte=1"`
	N5   float64 `field:"n_5" validate:"gte=0,lte=1"`
	N6   float64 `field:"n_6" validate:"gte=0,lte=1"`
	N7   float64 `field:"n_7" validate:"gte=0,lte=1"`
	M1   float64 `field:"m_1" validate:"gte=0,lte=1"`
	M2   float64 `field:"m_2" validate:"gte=0,lte=1"`
}

// Wind holds wind indicators. Indicators are bounded to [0,1], weights to (0,1].
type Wind struct {
	ID   int     `field:"id"`
	Res1 float64 `field:"res_1" validate:"gte=0,lte=1"`
	Res2 float64 `field:"res_2" validate:"gte=0,lte=1"`
	Res3 float64 `field:"res_3" validate:"gte=0,lte=1"`
	Rec1 float64 `field:"rec_1" validate:"gte=0,lte=1"`
	Rec2 float64 `field:"rec_2" validate:"gte=0,lte=1"`
	Rec3 float64 `field:"rec_3" validate:"gte=0,lte=1"`
	N1   float64 `field:"n_1" validate:"gt=0,lte=1"`
	N2   float64 `field:"n_2" validate:"gt=0,lte=1"`
	N3   float64 `field:"n_3" validate:"gt=0,lte=1"`
	N4   float64 `field:"n_4" validate:"gt=0,lte=1"`
	N5   float64 `field:"n_5" validate:"gt=0,lte=1"`
	N6   float64 `field:"n_6" validate:"gt=0,lte=1"`
	M1   float64 `field:"m_1" validate:"gt=0,lte=1"`
	M2   float64 `field:"m_2" validate:"gt=0,lte=1"`
}

// Flood holds flood indicators. Indicators are bounded to [0,1], weights to (0,1].
type Flood struct {
	ID   int     `field:"id"`
	Res1 float64 `field:"res_1" validate:"gte=0,lte=1"`
	Res2 float64 `field:"res_2" validate:"gte=0,lte=1"`
	Res3 float64 `field:"res_3" validate:"gte=0,lte=1"`
	Res4 float64 `field:"res_4" validate:"gte=0,lte=1"`
	Res5 float64 `field:"res_5" validate:"gte=0,lte=1"`
	Rec1 float64 `field:"rec_1" validate:"gte=0,lte=1"`
	Rec2 float64 `field:"rec_2" validate:"gte=0,lte=1"`
	Rec3 float64 `field:"rec_3" validate:"gte=0,lte=1"`
	Rec4 float64 `field:"rec_4" validate:"gte=0,lte=1"`
	N1   float64 `field:"n_1" validate:"gt=0,lte=1"`
	N2   float64 `field:"n_2" validate:"gt=0,lte=1"`
	N3   float64 `field:"n_3" validate:"gt=0,lte=1"`
	N4   float64 `field:"n_4" validate:"gt=0,lte=1"`
	N5   float64 `field:"n_5" validate:"gt=0,lte=1"`
	N6   float64 `field:"n_6" validate:"gt=0,lte=1"`
	N7   float64 `field:"n_7" validate:"gt=0,lte=1"`
	N8   float64 `field:"n_8" validate:"gt=0,lte=1"`
	N9   float64 `field:"n_9" validate:"gt=0,lte=1"`
	M1   float64 `field:"m_1" validate:"gt=0,lte=1"`
	M2   float64 `field:"m_2" validate:"gt=0,lte=1"`
}

// Compile-time checks
var (
	_ Record = &Heat{}
	_ Record = &Seismic{}
	_ Record = &Wind{}
	_ Record = &Flood{}
)

// Hazard returns schema.HeatHazard.
func (h *Heat) Hazard() schema.Hazard { return schema.HeatHazard }

// BuildingID returns the record id.
func (h *Heat) BuildingID() int { return h.ID }

// Compute returns ((1 - res_1*res_2*res_3)*m_1 + (1 - rec_1)*m_2) * e_f.
func (h *Heat) Compute() float64 {
	resistance := 1 - h.Res1*h.Res2*h.Res3
	recovery := 1 - h.Rec1
	return (resistance*h.M1 + recovery*h.M2) * h.EF
}

func (h *Heat) isRecord() {}

// Hazard returns schema.SeismicHazard.
func (s *Seismic) Hazard() schema.Hazard { return schema.SeismicHazard }

// BuildingID returns the record id.
func (s *Seismic) BuildingID() int { return s.ID }

// Compute returns (1 - Π res_k^n_k)*m_1 + (1 - rec_1^n_5*rec_2^n_6*rec_3^n_7)*m_2.
func (s *Seismic) Compute() float64 {
	resistance := 1 - weightedProduct(
		[]float64{s.Res1, s.Res2, s.Res3, s.Res4},
		[]float64{s.N1, s.N2, s.N3, s.N4},
	)
	recovery := 1 - weightedProduct(
		[]float64{s.Rec1, s.Rec2, s.Rec3},
		[]float64{s.N5, s.N6, s.N7},
	)
	return resistance*s.M1 + recovery*s.M2
}

func (s *Seismic) isRecord() {}

// Hazard returns schema.WindHazard.
func (w *Wind) Hazard() schema.Hazard { return schema.WindHazard }

// BuildingID returns the record id.
func (w *Wind) BuildingID() int { return w.ID }

// Compute returns (1 - Π res_k^n_k)*m_1 + (1 - rec_1^n_4*rec_2^n_5*rec_3^n_6)*m_2.
func (w *Wind) Compute() float64 {
	resistance := 1 - weightedProduct(
		[]float64{w.Res1, w.Res2, w.Res3},
		[]float64{w.N1, w.N2, w.N3},
	)
	recovery := 1 - weightedProduct(
		[]float64{w.Rec1, w.Rec2, w.Rec3},
		[]float64{w.N4, w.N5, w.N6},
	)
	return resistance*w.M1 + recovery*w.M2
}

func (w *Wind) isRecord() {}

// Hazard returns schema.FloodHazard.
func (f *Flood) Hazard() schema.Hazard { return schema.FloodHazard }

// BuildingID returns the record id.
func (f *Flood) BuildingID() int { return f.ID }

// Compute returns (1 - Π res_k^n_k)*m_1 + (1 - rec_1^n_6*...*rec_4^n_9)*m_2.
func (f *Flood) Compute() float64 {
	resistance := 1 - weightedProduct(
		[]float64{f.Res1, f.Res2, f.Res3, f.Res4, f.Res5},
		[]float64{f.N1, f.N2, f.N3, f.N4, f.N5},
	)
	recovery := 1 - weightedProduct(
		[]float64{f.Rec1, f.Rec2, f.Rec3, f.Rec4},
		[]float64{f.N6, f.N7, f.N8, f.N9},
	)
	return resistance*f.M1 + recovery*f.M2
}

func (f *Flood) isRecord() {}

// weightedProduct returns Π values[i]^exponents[i].
// math.Pow(0, 0) is 1, so a zero exponent removes an indicator from the product.
func weightedProduct(values, exponents []float64) float64 {
	product := 1.0
	for i, v := range values {
		product *= math.Pow(v, exponents[i])
	}
	return product
}
