package pipelineconfig

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/registry"
)

func TestLoad(t *testing.T) {
	cfg, data, err := Load("testdata/pipeline.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	require.NoError(t, cfg.RequireFeature())
	require.NoError(t, cfg.RequireScore())
	require.NoError(t, cfg.RequireProfiles())
	require.NoError(t, cfg.RequireManifest())

	assert.Equal(t, []string{"CNPJ_FUNDO_CLASSE", "DENOM_SOCIAL", "competencia"}, cfg.GroupKeys())
	assert.Equal(t, "competencia", cfg.DefaultScoreGroup())
	assert.Equal(t, []string{"cda_fi_BLC_4", "cda_fi_PL"}, cfg.Datasets())

	// manifest periods given as YAML ints decode as text
	src, ok := cfg.Manifest.Get("cda_fi_BLC_4")
	require.True(t, ok)
	assert.Equal(t, []string{"202401", "202402"}, src.Periods)

	pl, _ := cfg.Manifest.Get("cda_fi_PL")
	assert.Equal(t, 3, pl.Latest)
}

func TestDatasetFeaturesKeepDocumentOrder(t *testing.T) {
	cfg, _, err := Load("testdata/pipeline.yaml")
	require.NoError(t, err)

	sets := cfg.DatasetFeatures()
	require.Len(t, sets, 2)
	assert.Equal(t, "cda_fi_BLC_4", sets[0].Dataset)
	assert.Empty(t, sets[1].Definitions)

	var names []string
	for _, d := range sets[0].Definitions {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"patrimonio_liq", "n_ativos", "credito_share", "related_party_share", "issuer_hhi"}, names)

	credit := sets[0].Definitions[2]
	assert.Equal(t, "credito_share_feature_fn", credit.Method)
	assert.Equal(t, []string{"clip", "coalesce"}, credit.Adjustments)
	require.Len(t, credit.Args, 1)
	assert.Equal(t, []interface{}{"Debêntures", "CRI", "CRA"}, credit.Args[0])
}

func TestScoreAndProfileDefinitions(t *testing.T) {
	cfg, _, err := Load("testdata/pipeline.yaml")
	require.NoError(t, err)

	scores := cfg.ScoreDefinitions()
	require.Len(t, scores, 4)
	assert.Equal(t, registry.ScoreDefinition{
		Name: "credit_risk_score", Type: registry.ScoreZ, Feature: "credito_share", Invert: true, Coalesce: true,
	}, scores[2])

	profiles := cfg.ProfileDefinitions()
	require.Len(t, profiles, 2)
	assert.Equal(t, "conservador", profiles[0].Name)
	assert.Equal(t, []registry.Weight{
		{Column: "size_score", Weight: 0.25},
		{Column: "credit_risk_score", Weight: 0.45},
		{Column: "concentration_risk_score", Weight: 0.30},
	}, profiles[0].Weights)
}

func TestHash(t *testing.T) {
	cfg, _, err := Load("testdata/pipeline.yaml")
	require.NoError(t, err)

	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	again, _, err := Load("testdata/pipeline.yaml")
	require.NoError(t, err)
	hash2, err := Hash(again)
	require.NoError(t, err)
	assert.Equal(t, hash, hash2, "hash not deterministic")

	// key order is part of the canonical form
	raw, err := json.Marshal(cfg.Score)
	require.NoError(t, err)
	assert.Regexp(t, `^\{"size_score".*"concentration_risk_score".*\}$`, string(raw))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{
			name:  "unknown top-level field",
			yaml:  "scores: {}\n",
			field: "",
		},
		{
			name:  "unknown feature field",
			yaml:  "feature:\n  group_keys: [a]\n  feature_registry:\n    ds:\n      f: {method: sum, arg: [x]}\n",
			field: "",
		},
		{
			name:  "missing method",
			yaml:  "feature:\n  group_keys: [a]\n  feature_registry:\n    ds:\n      f: {args: [x]}\n",
			field: "feature.feature_registry.ds.f.method",
		},
		{
			name:  "missing group keys",
			yaml:  "feature:\n  feature_registry:\n    ds:\n      f: {method: sum, args: [x]}\n",
			field: "feature.group_keys",
		},
		{
			name:  "bad score adjustment",
			yaml:  "score:\n  s: {type: zscore, args: {feature: f}, adjustment: [clip]}\n",
			field: "score.s.adjustment[0]",
		},
		{
			name:  "negative weight",
			yaml:  "profile:\n  p: {a: -1}\n",
			field: "profile.p.a",
		},
		{
			name:  "profile and profiles",
			yaml:  "profile:\n  p: {a: 1}\nprofiles:\n  q: {a: 1}\n",
			field: "profile",
		},
		{
			name:  "manifest without placeholder",
			yaml:  "manifest:\n  ds: {base_url: 'https://x.test/', filename_template: a.zip, periods: ['1']}\n",
			field: "manifest.ds.filename_template",
		},
		{
			name:  "manifest without periods",
			yaml:  "manifest:\n  ds: {base_url: 'https://x.test/', filename_template: 'a_{period}.zip'}\n",
			field: "manifest.ds",
		},
		{
			name:  "duplicate profile",
			yaml:  "profile:\n  p: {a: 1}\n  p: {b: 1}\n",
			field: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, contracts.ErrConfiguration), "got %v", err)

			var ce *contracts.ConfigurationError
			require.True(t, errors.As(err, &ce))
			if tt.field != "" {
				assert.Equal(t, tt.field, ce.Field)
			}
		})
	}
}

func TestRequireSections(t *testing.T) {
	cfg, err := Parse([]byte("profile:\n  p: {a: 1}\n"))
	require.NoError(t, err)

	assert.ErrorIs(t, cfg.RequireFeature(), contracts.ErrConfiguration)
	assert.ErrorIs(t, cfg.RequireScore(), contracts.ErrConfiguration)
	assert.ErrorIs(t, cfg.RequireManifest(), contracts.ErrConfiguration)
	assert.NoError(t, cfg.RequireProfiles())
	assert.Equal(t, "competencia", cfg.DefaultScoreGroup())
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.RequireProfiles(), contracts.ErrConfiguration)
}

func TestWarn(t *testing.T) {
	cfg, err := Parse([]byte(`
feature:
  group_keys: [k]
  feature_registry:
    ds:
      size: {method: sum, args: [x]}
    empty: {}
score:
  size_score: {type: zscore, args: {feature: size}}
  typo_score: {type: zscore, args: {feature: sizee}}
  bare_score: {type: zscore}
profile:
  p: {size_score: 1, nothing: 1}
`))
	require.NoError(t, err)

	codes := map[string]int{}
	for _, w := range Warn(cfg) {
		codes[w.Code]++
	}
	assert.Equal(t, map[string]int{"EMPTY_DATASET": 1, "NO_FEATURE": 1, "UNKNOWN_FEATURE": 1, "UNKNOWN_SCORE": 1}, codes)
}
