// Package mansiontax apportions estimated mansion tax receipts across the 73
// Scottish Parliament constituencies.
//
// Chargeable Band I and Band J dwelling counts are estimated per council
// area. Within each council the count is split across constituencies by
// population weighted with a wealth factor, the relative concentration of
// high-band homes, so weights inside a council always sum to one. Each
// constituency's dwellings then pay the flat band surcharges.
package mansiontax

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// ConstituencyCount is the number of Scottish Parliament constituencies.
	ConstituencyCount = 73

	// EstimatedStock is the national count of chargeable Band I and J
	// dwellings across all council areas.
	EstimatedStock = 7100

	// BandIRatio and BandJRatio split the stock between the two bands.
	BandIRatio = 0.89
	BandJRatio = 0.11

	// BandISurcharge and BandJSurcharge are the annual charges in pounds.
	BandISurcharge = 2000.0
	BandJSurcharge = 7500.0
)

// ExpectedRevenue returns the national receipts implied by the stock and the
// band split at the default surcharges, before any per-constituency rounding.
func ExpectedRevenue() float64 {
	return expectedRevenue(BandISurcharge, BandJSurcharge)
}

func expectedRevenue(bandI, bandJ float64) float64 {
	return EstimatedStock * (BandIRatio*bandI + BandJRatio*bandJ)
}

// Options adjusts the surcharge levels. Zero values keep the defaults.
type Options struct {
	BandISurcharge float64
	BandJSurcharge float64
}

func (o Options) surcharges() (bandI, bandJ float64) {
	bandI, bandJ = BandISurcharge, BandJSurcharge
	if o.BandISurcharge > 0 {
		bandI = o.BandISurcharge
	}
	if o.BandJSurcharge > 0 {
		bandJ = o.BandJSurcharge
	}
	return bandI, bandJ
}

// Constituency is one row of the embedded population table.
type Constituency struct {
	Name       string `yaml:"name" json:"constituency"`
	Council    string `yaml:"council" json:"council"`
	Population int    `yaml:"population" json:"population"`
}

// Allocation is the analysis result for one constituency.
type Allocation struct {
	Constituency     string  `json:"constituency"`
	Council          string  `json:"council"`
	Population       int     `json:"population"`
	WealthFactor     float64 `json:"wealth_factor"`
	Weight           float64 `json:"weight"`
	EstimatedSales   int     `json:"estimated_sales"`
	BandISales       int     `json:"band_i_sales"`
	BandJSales       int     `json:"band_j_sales"`
	AllocatedRevenue float64 `json:"allocated_revenue"`
	SharePct         float64 `json:"share_pct"`
}

// Analysis is the full allocation, sorted by allocated revenue descending.
type Analysis struct {
	Rows            []Allocation `json:"rows"`
	TotalSales      int          `json:"total_estimated_sales"`
	TotalBandI      int          `json:"total_band_i_sales"`
	TotalBandJ      int          `json:"total_band_j_sales"`
	TotalRevenue    float64      `json:"total_allocated_revenue"`
	ExpectedRevenue float64      `json:"expected_revenue"`
}

//go:embed data.yaml
var dataYAML []byte

type dataset struct {
	Constituencies []Constituency     `yaml:"constituencies"`
	WealthFactors  map[string]float64 `yaml:"wealth_factors"`
	CouncilSales   map[string]int     `yaml:"council_sales"`
}

var (
	loadOnce sync.Once
	loaded   *dataset
	loadErr  error
)

func load() (*dataset, error) {
	loadOnce.Do(func() {
		var d dataset
		if err := yaml.Unmarshal(dataYAML, &d); err != nil {
			loadErr = fmt.Errorf("parse embedded constituency data: %w", err)
			return
		}
		if err := d.validate(); err != nil {
			loadErr = fmt.Errorf("embedded constituency data: %w", err)
			return
		}
		loaded = &d
	})
	return loaded, loadErr
}

func (d *dataset) validate() error {
	if len(d.Constituencies) != ConstituencyCount {
		return fmt.Errorf("%d constituencies, want %d", len(d.Constituencies), ConstituencyCount)
	}
	councils := make(map[string]struct{})
	seen := make(map[string]struct{}, len(d.Constituencies))
	for _, c := range d.Constituencies {
		if c.Name == "" || c.Council == "" {
			return fmt.Errorf("constituency with empty name or council")
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("duplicate constituency %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		councils[c.Council] = struct{}{}
		if c.Population <= 0 {
			return fmt.Errorf("constituency %q population %d", c.Name, c.Population)
		}
	}
	for name, factor := range d.WealthFactors {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("wealth factor for unknown constituency %q", name)
		}
		if factor < 0 {
			return fmt.Errorf("negative wealth factor %v for %q", factor, name)
		}
	}
	total := 0
	for council, sales := range d.CouncilSales {
		if _, ok := councils[council]; !ok {
			return fmt.Errorf("sales for unmapped council %q", council)
		}
		if sales < 0 {
			return fmt.Errorf("negative sales %d for council %q", sales, council)
		}
		total += sales
	}
	if total != EstimatedStock {
		return fmt.Errorf("council sales sum to %d, want %d", total, EstimatedStock)
	}
	return nil
}

func (d *dataset) wealthFactor(name string) float64 {
	if f, ok := d.WealthFactors[name]; ok {
		return f
	}
	return 1.0
}

// LoadPopulations returns the embedded constituency population table.
func LoadPopulations() ([]Constituency, error) {
	d, err := load()
	if err != nil {
		return nil, err
	}
	out := make([]Constituency, len(d.Constituencies))
	copy(out, d.Constituencies)
	return out, nil
}

// LoadWealthFactors returns the explicit wealth factor table. Constituencies
// absent from it are treated as factor 1.0 by Analyze.
func LoadWealthFactors() (map[string]float64, error) {
	d, err := load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(d.WealthFactors))
	for name, factor := range d.WealthFactors {
		out[name] = factor
	}
	return out, nil
}

// LoadCouncilSales returns estimated chargeable dwelling counts per council.
func LoadCouncilSales() (map[string]int, error) {
	d, err := load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(d.CouncilSales))
	for council, sales := range d.CouncilSales {
		out[council] = sales
	}
	return out, nil
}

// Analyze allocates the national stock and receipts to constituencies at the
// default surcharge levels.
func Analyze() (*Analysis, error) {
	return AnalyzeWith(Options{})
}

// AnalyzeWith is Analyze with overridden surcharges.
func AnalyzeWith(opts Options) (*Analysis, error) {
	d, err := load()
	if err != nil {
		return nil, err
	}
	surchargeI, surchargeJ := opts.surcharges()
	councilWeight := make(map[string]float64)
	for _, c := range d.Constituencies {
		councilWeight[c.Council] += float64(c.Population) * d.wealthFactor(c.Name)
	}

	analysis := &Analysis{
		Rows:            make([]Allocation, 0, len(d.Constituencies)),
		ExpectedRevenue: expectedRevenue(surchargeI, surchargeJ),
	}
	for _, c := range d.Constituencies {
		factor := d.wealthFactor(c.Name)
		weight := float64(c.Population) * factor / councilWeight[c.Council]
		sales := int(math.Round(float64(d.CouncilSales[c.Council]) * weight))
		bandI := int(math.Round(BandIRatio * float64(sales)))
		bandJ := sales - bandI
		revenue := float64(bandI)*surchargeI + float64(bandJ)*surchargeJ

		analysis.Rows = append(analysis.Rows, Allocation{
			Constituency:     c.Name,
			Council:          c.Council,
			Population:       c.Population,
			WealthFactor:     factor,
			Weight:           weight,
			EstimatedSales:   sales,
			BandISales:       bandI,
			BandJSales:       bandJ,
			AllocatedRevenue: revenue,
			SharePct:         revenue / analysis.ExpectedRevenue * 100,
		})
		analysis.TotalSales += sales
		analysis.TotalBandI += bandI
		analysis.TotalBandJ += bandJ
		analysis.TotalRevenue += revenue
	}

	sort.Slice(analysis.Rows, func(i, j int) bool {
		if analysis.Rows[i].AllocatedRevenue != analysis.Rows[j].AllocatedRevenue {
			return analysis.Rows[i].AllocatedRevenue > analysis.Rows[j].AllocatedRevenue
		}
		return analysis.Rows[i].Constituency < analysis.Rows[j].Constituency
	})
	return analysis, nil
}
