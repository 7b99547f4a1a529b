package diagnostics

import (
	"fitting-console/core/models"
)

// List modes for the importance presentation
const (
	ModeCoefficients = "coefficients"
	ModeImportance   = "importance"
)

// Explanations shown above the importance table
const (
	coefficientsExplanation = "Coefficients show how strongly and in which direction each feature moves the target. Positive values push it up, negative values push it down."
	importanceExplanation   = "Importance shows how much each feature contributes to the model's predictions relative to the others."
)

// Axis describes one chart axis
type Axis struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// ChartSpec is a renderable actual vs predicted scatter chart
type ChartSpec struct {
	Title      string   `json:"title"`
	XAxis      Axis     `json:"x_axis"`
	YAxis      Axis     `json:"y_axis"`
	Points     []Point  `json:"points"`
	ParityLine [2]Point `json:"parity_line"`
}

// RankedList is a renderable ranked importance table / bar chart
type RankedList struct {
	Mode        string          `json:"mode"`
	Title       string          `json:"title"`
	Explanation string          `json:"explanation"`
	Signed      bool            `json:"signed"`
	Entries     []RankedFeature `json:"entries"`
}

// Headline carries the metrics surfaced at the top of a model view
type Headline struct {
	Metrics     models.Metrics `json:"metrics"`
	Bucket      Bucket         `json:"bucket"`
	BucketColor string         `json:"bucket_color"`
}

// DiagnosticsView is everything the model view renders. Sections whose
// input is missing or empty are omitted.
type DiagnosticsView struct {
	ModelID       string      `json:"model_id,omitempty"`
	ModelType     string      `json:"model_type,omitempty"`
	AlgorithmName string      `json:"algorithm_name,omitempty"`
	Headline      *Headline   `json:"headline,omitempty"`
	Scatter       *ChartSpec  `json:"scatter,omitempty"`
	Importance    *RankedList `json:"importance,omitempty"`
}

// Input bundles what the presenter consumes. Either Model or Evaluation may
// be nil. Signed is the algorithm family flag of the model's schema.
type Input struct {
	Model      *models.TrainedModel
	Evaluation *models.EvaluationResult
	Signed     bool
}

// Present composes geometry and ranking output into a DiagnosticsView.
func Present(in Input) DiagnosticsView {
	var view DiagnosticsView

	if in.Model != nil {
		view.ModelID = in.Model.ID
		view.ModelType = in.Model.ModelType
		view.AlgorithmName = models.AlgorithmDisplayName(in.Model.ModelType)
		view.Headline = headline(in.Model.Metrics)
		view.Importance = importanceList(in.Model.FeatureImportance, in.Signed)
	}

	if in.Evaluation != nil {
		// fresh evaluation metrics take precedence over training metrics
		view.Headline = headline(in.Evaluation.Metrics)
		view.Scatter = scatterChart(in.Evaluation)
	}

	return view
}

func headline(m models.Metrics) *Headline {
	b := Classify(m.R2)
	return &Headline{Metrics: m, Bucket: b, BucketColor: b.Color()}
}

func scatterChart(eval *models.EvaluationResult) *ChartSpec {
	if eval.Validate() != nil {
		return nil
	}
	domain, err := ComputeScatterDomain(eval.Actual, eval.Predictions)
	if err != nil {
		return nil
	}

	points := make([]Point, len(eval.Actual))
	for i := range eval.Actual {
		points[i] = Point{X: eval.Actual[i], Y: eval.Predictions[i]}
	}

	return &ChartSpec{
		Title:      "Actual vs Predicted",
		XAxis:      Axis{Name: "Actual", Min: domain.Min, Max: domain.Max},
		YAxis:      Axis{Name: "Predicted", Min: domain.Min, Max: domain.Max},
		Points:     points,
		ParityLine: ComputeParityLine(domain.Min, domain.Max),
	}
}

func importanceList(fi models.FeatureImportance, signed bool) *RankedList {
	if len(fi) == 0 {
		return nil
	}
	entries, err := Rank(fi, signed)
	if err != nil {
		return nil
	}

	list := &RankedList{
		Mode:        ModeImportance,
		Title:       "Feature Importance",
		Explanation: importanceExplanation,
		Signed:      signed,
		Entries:     entries,
	}
	if signed {
		list.Mode = ModeCoefficients
		list.Title = "Feature Coefficients"
		list.Explanation = coefficientsExplanation
	}
	return list
}
