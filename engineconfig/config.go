// Package engineconfig holds the tunable numeric constants the engine's
// compute stages are parameterised by. The engine itself never reads
// files or the environment — a caller embedding it in a worker loads a
// Config once (optionally via Load, which overlays viper-backed
// YAML/env settings onto the defaults) and threads it through the
// constructors in pca, cluster and repness.
package engineconfig

import "github.com/spf13/viper"

// Config bundles every numeric constant spec.md fixes by name, so none of
// them are hard-coded more than once.
type Config struct {
	// Seed is the fixed power-iteration / k-means++ RNG seed (spec.md §5:
	// "The power-iteration RNG seed is fixed (42) so runs are reproducible").
	Seed int64

	// PCAComponents is the default number of components requested (K).
	PCAComponents int
	// PCAMaxIter bounds power-iteration steps per component.
	PCAMaxIter int
	// PCAEpsilon is the convergence threshold: stop once |<v, v_prev>| > 1-epsilon.
	PCAEpsilon float64

	// ClusterMaxIter bounds k-means refinement iterations.
	ClusterMaxIter int
	// ClusterTolerance is the per-cluster center-movement convergence bound.
	ClusterTolerance float64

	// PseudoCount is the Bayesian smoothing pseudocount (alpha) used by repness.
	PseudoCount float64
	// Z90 is the two-tailed z critical value for 90% confidence.
	Z90 float64

	// ReportThreshold is the batch size from which progress logs are
	// emitted; ProgressInterval is how often to log while doing so.
	// Matrix.BatchUpdate does not read these fields: it uses its own
	// constants with the same default values.
	ReportThreshold int
	ProgressInterval int
}

// Default returns the spec-mandated defaults.
func Default() Config {
	return Config{
		Seed:             42,
		PCAComponents:    2,
		PCAMaxIter:       100,
		PCAEpsilon:       1e-10,
		ClusterMaxIter:   20,
		ClusterTolerance: 0.01,
		PseudoCount:      1.5,
		Z90:              1.645,
		ReportThreshold:  8000,
		ProgressInterval: 5000,
	}
}

// Load builds a Config starting from Default() and overlaying any of the
// given YAML config file paths plus OPINE_-prefixed environment variables
// (e.g. OPINE_PCAMAXITER=200). Unknown keys in the file are ignored,
// mirroring the lenient round-trip contract spec.md asks of to_dict/from_dict
// persistence: extra keys don't break the loader.
func Load(paths ...string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("OPINE")
	v.AutomaticEnv()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("seed", cfg.Seed)
	v.SetDefault("pcacomponents", cfg.PCAComponents)
	v.SetDefault("pcamaxiter", cfg.PCAMaxIter)
	v.SetDefault("pcaepsilon", cfg.PCAEpsilon)
	v.SetDefault("clustermaxiter", cfg.ClusterMaxIter)
	v.SetDefault("clustertolerance", cfg.ClusterTolerance)
	v.SetDefault("pseudocount", cfg.PseudoCount)
	v.SetDefault("z90", cfg.Z90)
	v.SetDefault("reportthreshold", cfg.ReportThreshold)
	v.SetDefault("progressinterval", cfg.ProgressInterval)

	for _, p := range paths {
		v.SetConfigFile(p)
		if err := v.MergeInConfig(); err != nil {
			return cfg, err
		}
	}

	cfg.Seed = v.GetInt64("seed")
	cfg.PCAComponents = v.GetInt("pcacomponents")
	cfg.PCAMaxIter = v.GetInt("pcamaxiter")
	cfg.PCAEpsilon = v.GetFloat64("pcaepsilon")
	cfg.ClusterMaxIter = v.GetInt("clustermaxiter")
	cfg.ClusterTolerance = v.GetFloat64("clustertolerance")
	cfg.PseudoCount = v.GetFloat64("pseudocount")
	cfg.Z90 = v.GetFloat64("z90")
	cfg.ReportThreshold = v.GetInt("reportthreshold")
	cfg.ProgressInterval = v.GetInt("progressinterval")

	return cfg, nil
}
