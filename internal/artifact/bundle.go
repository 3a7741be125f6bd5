// Package artifact persists trained model bundles and tracks which bundle
// is active for each prediction target.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/match-predictor/internal/features"
	"github.com/yourusername/match-predictor/internal/ml"
	"github.com/yourusername/match-predictor/internal/models"
	"github.com/yourusername/match-predictor/internal/preprocess"
)

const (
	keyTimeLayout = "20060102T150405Z"
	keyHashLength = 12
)

// Metrics summarises how a bundle's model performed at training time.
type Metrics struct {
	Target             models.PredictionTarget `json:"target"`
	CVMean             float64                 `json:"cv_mean"`
	CVStd              float64                 `json:"cv_std"`
	CVFolds            int                     `json:"cv_folds"`
	TrainAccuracy      float64                 `json:"train_accuracy"`
	ValidationAccuracy float64                 `json:"validation_accuracy"`
	Stratified         bool                    `json:"stratified"`
	TrainRows          int                     `json:"train_rows"`
	TestRows           int                     `json:"test_rows"`
	Classes            []string                `json:"classes"`
	Warnings           []string                `json:"warnings,omitempty"`
}

// Bundle is everything needed to serve one target: the model together with
// the preprocessing state it was trained against. TargetEncoder is nil for
// binary targets, whose classes are the labels 0 and 1.
type Bundle struct {
	Key           string                  `json:"-"`
	ContentHash   string                  `json:"-"`
	Target        models.PredictionTarget `json:"target"`
	CreatedAt     time.Time               `json:"created_at"`
	SchemaVersion string                  `json:"schema_version"`
	Transformer   *preprocess.Transformer `json:"transformer"`
	TargetEncoder *features.LabelEncoder  `json:"target_encoder,omitempty"`
	Model         *ml.RandomForest        `json:"model"`
	Metrics       Metrics                 `json:"metrics"`
}

// Validate checks the bundle can be used together with the current engine.
func (b *Bundle) Validate() error {
	if !b.Target.Valid() {
		return fmt.Errorf("%w: target %q", ErrIncompatibleBundle, b.Target)
	}
	if b.Transformer == nil || b.Model == nil {
		return fmt.Errorf("%w: missing transformer or model", ErrIncompatibleBundle)
	}
	if err := b.Transformer.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrIncompatibleBundle, err)
	}
	if b.SchemaVersion != b.Transformer.SchemaVersion {
		return fmt.Errorf("%w: bundle schema %s, transformer schema %s",
			ErrIncompatibleBundle, b.SchemaVersion, b.Transformer.SchemaVersion)
	}
	if b.Model.Width != b.Transformer.Schema.Len() {
		return fmt.Errorf("%w: model expects %d features, schema has %d",
			ErrIncompatibleBundle, b.Model.Width, b.Transformer.Schema.Len())
	}
	if b.Target.Categorical() && b.TargetEncoder == nil {
		return fmt.Errorf("%w: %s requires a target encoder", ErrIncompatibleBundle, b.Target)
	}
	return nil
}

// DecodeClass maps a model class back to the label published in predictions.
func (b *Bundle) DecodeClass(class int) (string, error) {
	if b.TargetEncoder == nil {
		return fmt.Sprintf("%d", class), nil
	}
	return b.TargetEncoder.Inverse(class)
}

// payload is the hashed body of a bundle.
func (b *Bundle) payload() ([]byte, string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode bundle: %w", err)
	}
	return data, hashOf(data), nil
}

// Seal computes the content hash and assigns the bundle key.
func (b *Bundle) Seal() error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	b.CreatedAt = b.CreatedAt.UTC()
	_, hash, err := b.payload()
	if err != nil {
		return err
	}
	b.ContentHash = hash
	b.Key = BundleKey(b.Target, b.CreatedAt, hash)
	return nil
}

// BundleKey formats <target>-<utc timestamp>-<hash prefix>.
func BundleKey(target models.PredictionTarget, at time.Time, hash string) string {
	if len(hash) > keyHashLength {
		hash = hash[:keyHashLength]
	}
	return fmt.Sprintf("%s-%s-%s", target.SnapshotKey(), at.UTC().Format(keyTimeLayout), hash)
}

// TargetFromKey extracts the target of a bundle key.
func TargetFromKey(key string) (models.PredictionTarget, error) {
	i := strings.Index(key, "-")
	if i < 0 {
		return "", fmt.Errorf("%w: malformed key %q", ErrUnknownBundle, key)
	}
	return models.ParseTarget(key[:i])
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
