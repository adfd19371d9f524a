package charts

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"emotrace/internal/aggregate"
	"emotrace/internal/filter"
	"emotrace/internal/logging"
)

// ErrNoData is returned when a chart would have nothing to draw.
var ErrNoData = errors.New("no data to chart")

// Kind names a chart type; it is part of every output file name.
type Kind string

const (
	KindEmotionEvolution Kind = "emotion_evolution"
	KindMissingEmotions  Kind = "missing_emotions"
	KindFrameCounts      Kind = "frame_counts"
	KindTimeDistribution Kind = "time_distribution"
)

// DefaultHistogramBins is used when a histogram is requested with fewer than one bin.
const DefaultHistogramBins = 50

var metricColors = []color.Color{colornames.Darkmagenta, colornames.Darkcyan, colornames.Darkorange}

// Options sizes the rendered images.
type Options struct {
	WidthCM  float64
	HeightCM float64
}

// Renderer writes charts for one run into a directory.
type Renderer struct {
	logger *slog.Logger
	dir    string
	prefix string
	width  vg.Length
	height vg.Length
	title  cases.Caser
}

// NewRenderer constructs a renderer. runID prefixes every file name.
func NewRenderer(logger *slog.Logger, dir, runID string, opts Options) *Renderer {
	if opts.WidthCM <= 0 {
		opts.WidthCM = 16
	}
	if opts.HeightCM <= 0 {
		opts.HeightCM = 10
	}
	prefix := strings.TrimSpace(runID)
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return &Renderer{
		logger: logging.NewComponentLogger(logger, "charts"),
		dir:    dir,
		prefix: prefix,
		width:  vg.Length(opts.WidthCM) * vg.Centimeter,
		height: vg.Length(opts.HeightCM) * vg.Centimeter,
		title:  cases.Title(language.Und),
	}
}

// FileName returns the output name for a chart kind and optional suffix.
func (r *Renderer) FileName(kind Kind, suffix string) string {
	parts := make([]string, 0, 3)
	if r.prefix != "" {
		parts = append(parts, r.prefix)
	}
	parts = append(parts, string(kind))
	if suffix != "" {
		parts = append(parts, suffix)
	}
	return strings.Join(parts, "_") + ".png"
}

func (r *Renderer) newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = r.title.String(title)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.BackgroundColor = colornames.Snow
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.Padding = vg.Points(5)
	p.Add(plotter.NewGrid())
	return p
}

func (r *Renderer) save(p *plot.Plot, kind Kind, suffix string) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create chart directory: %w", err)
	}
	path := filepath.Join(r.dir, r.FileName(kind, suffix))
	if err := p.Save(r.width, r.height, path); err != nil {
		return "", fmt.Errorf("save %s chart: %w", kind, err)
	}
	r.logger.Debug("chart written", logging.Args(logging.String("kind", string(kind)), logging.String("path", path))...)
	return path, nil
}

// EmotionEvolution draws one chart per video with a line per metric mean
// across bins and a zero reference line.
func (r *Renderer) EmotionEvolution(table aggregate.BinTable) ([]string, error) {
	ids := table.VideoIDs()
	if len(ids) == 0 {
		return nil, ErrNoData
	}
	var paths []string
	for _, id := range ids {
		cells := table.Video(id)
		p := r.newPlot("emotions evolution, video "+strconv.Itoa(id), "Time bin", "Mean")

		series := [3]plotter.XYs{}
		for i := range series {
			series[i] = make(plotter.XYs, len(cells))
		}
		for i, c := range cells {
			for m, v := range []float64{c.Metric1, c.Metric2, c.Metric3} {
				series[m][i].X = float64(c.Bin)
				series[m][i].Y = v
			}
		}
		for m, xys := range series {
			line, err := plotter.NewLine(xys)
			if err != nil {
				return paths, fmt.Errorf("video %d metric_%d: %w", id, m+1, err)
			}
			line.Color = metricColors[m]
			line.Width = vg.Points(1.5)
			p.Add(line)
			p.Legend.Add(fmt.Sprintf("metric_%d", m+1), line)
		}

		zero, err := plotter.NewLine(plotter.XYs{{X: 1, Y: 0}, {X: float64(max(table.Count, 1)), Y: 0}})
		if err != nil {
			return paths, fmt.Errorf("video %d zero line: %w", id, err)
		}
		zero.Color = colornames.Red
		p.Add(zero)

		path, err := r.save(p, KindEmotionEvolution, "video_"+strconv.Itoa(id))
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// MissingEmotions draws the missing emotion share per video as bars.
func (r *Renderer) MissingEmotions(shares filter.Shares) (string, error) {
	if len(shares.Videos) == 0 {
		return "", ErrNoData
	}
	values := make(plotter.Values, len(shares.Videos))
	names := make([]string, len(shares.Videos))
	for i, v := range shares.Videos {
		values[i] = v.Percent
		names[i] = "Video " + strconv.Itoa(v.VideoID)
	}
	p := r.newPlot("missing emotion values per video", "", "Frequency, %")
	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return "", fmt.Errorf("missing emotions bars: %w", err)
	}
	bars.Color = colornames.Steelblue
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)
	return r.save(p, KindMissingEmotions, "")
}

// FrameCounts draws a histogram of the number of frames per subject.
func (r *Renderer) FrameCounts(obs []aggregate.Observation, bins int) (string, error) {
	seen := make(map[[2]int]struct{})
	var values plotter.Values
	for _, o := range obs {
		key := [2]int{o.VideoID, o.SubjectID}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		values = append(values, float64(o.NoOfFrames))
	}
	return r.histogram(values, bins, "number of frames distribution", "Frames per subject", KindFrameCounts, "")
}

// TimeDistribution draws, per video, a histogram of frame timestamps.
func (r *Renderer) TimeDistribution(obs []aggregate.Observation, bins int) ([]string, error) {
	byVideo := make(map[int]plotter.Values)
	var ids []int
	for _, o := range obs {
		if _, ok := byVideo[o.VideoID]; !ok {
			ids = append(ids, o.VideoID)
		}
		byVideo[o.VideoID] = append(byVideo[o.VideoID], float64(o.MillisecondFromStart))
	}
	if len(ids) == 0 {
		return nil, ErrNoData
	}
	var paths []string
	for _, id := range ids {
		path, err := r.histogram(byVideo[id], bins, "time distribution, video "+strconv.Itoa(id),
			"Millisecond from start", KindTimeDistribution, "video_"+strconv.Itoa(id))
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (r *Renderer) histogram(values plotter.Values, bins int, title, xLabel string, kind Kind, suffix string) (string, error) {
	if len(values) == 0 {
		return "", ErrNoData
	}
	if bins < 1 {
		bins = DefaultHistogramBins
	}
	p := r.newPlot(title, xLabel, "Count")
	hist, err := plotter.NewHist(values, bins)
	if err != nil {
		return "", fmt.Errorf("%s histogram: %w", kind, err)
	}
	hist.FillColor = colornames.Lightsteelblue
	hist.LineStyle.Color = colornames.Black
	p.Add(hist)
	return r.save(p, kind, suffix)
}
