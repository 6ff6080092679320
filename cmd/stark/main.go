// Command stark computes Stark maps: it ramps an electric field over a
// configured range, diagonalizes the atom at every field point and writes
// the eigenvalues and overlaps to per-point run directories.
package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/SimonHollerith/pairinteraction"
	"github.com/SimonHollerith/pairinteraction/cache"
	"github.com/SimonHollerith/pairinteraction/state"
)

const (
	fnameEigen = "eig.csv"
	fnameDone  = "done.txt"
	fnameMap   = "map.csv"
)

var (
	runDir     string
	configFile string
)

type Config struct {
	Species string `yaml:"species"`

	NMin int `yaml:"n_min"`
	NMax int `yaml:"n_max"`
	LMin int `yaml:"l_min"`
	LMax int `yaml:"l_max"`

	// Optional energy window in atomic units.
	EnergyMin *float64 `yaml:"energy_min"`
	EnergyMax *float64 `yaml:"energy_max"`

	// Electric field ramp along z, atomic units.
	EfieldMin   float64 `yaml:"efield_min"`
	EfieldMax   float64 `yaml:"efield_max"`
	EfieldSteps int     `yaml:"efield_steps"`

	Bfield       [3]float64 `yaml:"bfield"`
	Diamagnetism bool       `yaml:"diamagnetism"`

	// Target state whose character is traced through the map.
	Target struct {
		N int     `yaml:"n"`
		L int     `yaml:"l"`
		J float64 `yaml:"j"`
		M float64 `yaml:"m"`
	} `yaml:"target"`

	// Eigenvector entries below this threshold are truncated.
	Tolerance float64 `yaml:"tolerance"`

	// Optional sqlite file for persisting matrix elements across runs.
	CachePath string `yaml:"cache_path"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	cfg := &Config{
		Species:      "Rb",
		EfieldSteps:  1,
		Diamagnetism: true,
		Tolerance:    1e-12,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if cfg.NMin <= 0 || cfg.NMax < cfg.NMin {
		return nil, errors.Errorf("invalid n range [%d, %d]", cfg.NMin, cfg.NMax)
	}
	if cfg.EfieldSteps < 1 {
		return nil, errors.Errorf("invalid efield_steps %d", cfg.EfieldSteps)
	}
	return cfg, nil
}

func newCache(cfg *Config) (*cache.Cache, error) {
	if cfg.CachePath == "" {
		return cache.New(), nil
	}
	return cache.NewWithDB(cfg.CachePath)
}

func newSystem(cfg *Config, c *cache.Cache, efield float64) (*pairinteraction.SystemOne, error) {
	s := pairinteraction.NewSystemOne(cfg.Species, c)
	s.RestrictN(cfg.NMin, cfg.NMax)
	s.RestrictL(cfg.LMin, cfg.LMax)
	if cfg.EnergyMin != nil && cfg.EnergyMax != nil {
		s.RestrictEnergy(*cfg.EnergyMin, *cfg.EnergyMax)
	}
	if err := s.SetEfield([3]float64{0, 0, efield}); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := s.SetBfield(cfg.Bfield); err != nil {
		return nil, errors.Wrap(err, "")
	}
	s.EnableDiamagnetism(cfg.Diamagnetism)
	return s, nil
}

func solve(dir string, cfg *Config, c *cache.Cache, efield float64) error {
	donePath := filepath.Join(dir, fnameDone)
	if _, err := os.Stat(donePath); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	s, err := newSystem(cfg, c, efield)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := s.Diagonalize(cfg.Tolerance); err != nil {
		return errors.Wrap(err, "")
	}
	vals, err := s.Eigenvalues()
	if err != nil {
		return errors.Wrap(err, "")
	}
	target := state.NewOne(cfg.Species, cfg.Target.N, cfg.Target.L, cfg.Target.J, cfg.Target.M)
	overlaps, err := s.Overlap(target)
	if err != nil {
		return errors.Wrap(err, "")
	}

	if err := writeEig(dir, vals, overlaps); err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.WriteFile(donePath, nil, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func writeEig(dir string, vals, overlaps []float64) error {
	f, err := os.Create(filepath.Join(dir, fnameEigen))
	if err != nil {
		return errors.Wrap(err, "")
	}
	w := csv.NewWriter(f)

	for i, v := range vals {
		row := []string{
			strconv.FormatFloat(v, 'g', -1, 64),
			strconv.FormatFloat(overlaps[i], 'g', -1, 64),
		}
		if err1 := w.Write(row); err1 != nil && err == nil {
			err = errors.Wrap(err1, "")
			break
		}
	}

	w.Flush()
	if err1 := w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := f.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

func readEig(dir string) ([][2]float64, error) {
	f, err := os.Open(filepath.Join(dir, fnameEigen))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	out := make([][2]float64, 0, len(records))
	for _, record := range records {
		var row [2]float64
		for j, s := range record {
			row[j], err = strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Wrap(err, "")
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func fieldPoints(cfg *Config) []float64 {
	points := make([]float64, cfg.EfieldSteps)
	for i := range points {
		frac := 0.0
		if cfg.EfieldSteps > 1 {
			frac = float64(i) / float64(cfg.EfieldSteps-1)
		}
		points[i] = cfg.EfieldMin + frac*(cfg.EfieldMax-cfg.EfieldMin)
	}
	return points
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return errors.Wrap(err, "")
	}
	c, err := newCache(cfg)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer c.Close()

	for _, efield := range fieldPoints(cfg) {
		dir := filepath.Join(runDir, strconv.FormatFloat(efield, 'g', -1, 64))
		log.Printf("solving %s", dir)
		if err := solve(dir, cfg, c, efield); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}

// runGather concatenates the per-point results into one map file with rows
// (efield, eigenvalue, overlap).
func runGather(cmd *cobra.Command, args []string) error {
	entries, err := os.ReadDir(runDir)
	if err != nil {
		return errors.Wrap(err, "")
	}

	type point struct {
		efield float64
		rows   [][2]float64
	}
	points := make([]point, 0, len(entries))
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		efield, err := strconv.ParseFloat(ent.Name(), 64)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("%#v", ent))
		}
		rows, err := readEig(filepath.Join(runDir, ent.Name()))
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("%#v", ent))
		}
		points = append(points, point{efield: efield, rows: rows})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].efield < points[j].efield })

	f, err := os.Create(filepath.Join(runDir, fnameMap))
	if err != nil {
		return errors.Wrap(err, "")
	}
	w := csv.NewWriter(f)
	for _, p := range points {
		for _, row := range p.rows {
			record := []string{
				strconv.FormatFloat(p.efield, 'g', -1, 64),
				strconv.FormatFloat(row[0], 'g', -1, 64),
				strconv.FormatFloat(row[1], 'g', -1, 64),
			}
			if err1 := w.Write(record); err1 != nil && err == nil {
				err = errors.Wrap(err1, "")
				break
			}
		}
	}

	w.Flush()
	if err1 := w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := f.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "stark",
		Short: "Stark maps of Rydberg atoms",
	}
	rootCmd.PersistentFlags().StringVar(&runDir, "dir", filepath.Join("runs", "stark"), "run directory")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "diagonalize at every field point",
		RunE:  runScan,
	}
	scanCmd.Flags().StringVar(&configFile, "config", "stark.yaml", "scan config file (yaml)")

	gatherCmd := &cobra.Command{
		Use:   "gather",
		Short: "collect per-point results into one map file",
		RunE:  runGather,
	}

	rootCmd.AddCommand(scanCmd, gatherCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}
