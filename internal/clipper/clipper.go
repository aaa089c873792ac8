package clipper

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"smartmeal/internal/catalog"
	"smartmeal/internal/llm"
	"smartmeal/internal/shared"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

//go:embed clipper_prompt.md
var clipperPrompt string

var promptTmpl = template.Must(template.New("clipper").Parse(clipperPrompt))

// maxPromptContent bounds how much page text is sent to the model.
const maxPromptContent = 20000

var (
	// ErrNoRecipe is returned when the page has no usable recipe data and no
	// model is configured to read it.
	ErrNoRecipe = errors.New("no recipe found on page")
	// ErrNoNutrition is returned for a structured recipe without calories
	// when no model is configured to estimate them.
	ErrNoNutrition = errors.New("recipe has no nutrition data")
)

// MealStore persists clipped meals.
type MealStore interface {
	Save(ctx context.Context, m catalog.Meal) error
}

// Clipper turns recipe web pages into catalog meals.
type Clipper struct {
	httpClient *http.Client
	textGen    llm.TextGenerator
	store      MealStore
}

// Result is a clipped meal and how it was produced.
type Result struct {
	Meal   catalog.Meal
	Source string // "json-ld" or "llm"
	Meta   shared.AgentMeta
}

// NewClipper creates a new Clipper instance. textGen and store may be nil:
// without a model only pages with complete structured data can be clipped,
// and without a store the meal is returned but not saved.
func NewClipper(httpClient *http.Client, textGen llm.TextGenerator, store MealStore) *Clipper {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Clipper{httpClient: httpClient, textGen: textGen, store: store}
}

// ClipURL fetches the URL, reads its recipe and saves it as a new meal.
// Structured schema.org data is used as-is when it carries nutrition;
// otherwise the page text goes to the model.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*Result, error) {
	start := time.Now()

	doc, err := c.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	page, hasPage := findJSONLDRecipe(doc)
	var res *Result
	switch {
	case hasPage && page.HasNutrition && page.Name != "":
		res = &Result{Meal: page.toMeal(), Source: "json-ld", Meta: shared.AgentMeta{AgentName: "JSON-LD"}}
	case c.textGen == nil && hasPage:
		return nil, ErrNoNutrition
	case c.textGen == nil:
		return nil, ErrNoRecipe
	default:
		res, err = c.extractWithModel(ctx, doc, page)
		if err != nil {
			return nil, err
		}
	}

	res.Meal.ID = uuid.NewString()
	res.Meal.SourceURL = url
	res.Meta.Latency = time.Since(start)

	if c.store != nil {
		if err := c.store.Save(ctx, res.Meal); err != nil {
			return nil, fmt.Errorf("failed to save clipped meal: %w", err)
		}
	}
	return res, nil
}

func (c *Clipper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// cleanText strips noise from a copy of the page to save model tokens.
func cleanText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Remove()
	text := strings.Join(strings.Fields(body.Text()), " ")
	if len(text) > maxPromptContent {
		text = text[:maxPromptContent]
	}
	return text
}

type promptData struct {
	Title       string
	Ingredients []string
	Servings    int
	Content     string
}

// modelMeal is the JSON shape the prompt asks for.
type modelMeal struct {
	Name        string   `json:"name"`
	Calories    float64  `json:"calories"`
	Protein     float64  `json:"protein"`
	Carbs       float64  `json:"carbs"`
	Fat         float64  `json:"fat"`
	Tags        []string `json:"tags"`
	Ingredients []struct {
		Name string  `json:"name"`
		Unit string  `json:"unit"`
		Qty  float64 `json:"qty"`
	} `json:"ingredients"`
}

func (c *Clipper) extractWithModel(ctx context.Context, doc *goquery.Document, page pageRecipe) (*Result, error) {
	title := page.Name
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, promptData{
		Title:       title,
		Ingredients: page.Ingredients,
		Servings:    page.Servings,
		Content:     cleanText(doc),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	resp, err := c.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	var out modelMeal
	raw := strings.TrimSpace(resp.Content)
	raw = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(raw, "```json"), "```"), "```")
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	if strings.TrimSpace(out.Name) == "" {
		return nil, fmt.Errorf("failed to parse AI response: %w", ErrNoRecipe)
	}

	meal := catalog.Meal{
		Name:     strings.TrimSpace(out.Name),
		Calories: out.Calories,
		Protein:  out.Protein,
		Carbs:    out.Carbs,
		Fat:      out.Fat,
		Tags:     out.Tags,
		Image:    page.Image,
	}
	if len(meal.Tags) == 0 {
		meal.Tags = []string{catalog.TagLunch, catalog.TagDinner}
	}
	for _, ing := range out.Ingredients {
		meal.Ingredients = append(meal.Ingredients, catalog.Ingredient{Name: ing.Name, Unit: ing.Unit, Qty: ing.Qty})
	}

	return &Result{
		Meal:   meal,
		Source: "llm",
		Meta:   shared.AgentMeta{AgentName: "Clipper", Usage: resp.Usage},
	}, nil
}
