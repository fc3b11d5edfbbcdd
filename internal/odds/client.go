// Package odds pulls current NFL moneylines/spreads/totals from The Odds API
// and turns them into consensus numbers and implied win probabilities for the
// roadmap.
package odds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tyler180/retrieve-secret/retrievesecrets"

	"github.com/nflpicks/survivor-tools/internal/teams"
)

const apiBase = "https://api.the-odds-api.com/v4"

// wire types for the /sports/{sport}/odds response
type Event struct {
	ID           string      `json:"id"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

type Outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point"`
}

// GameOdds is the flattened consensus view of one matchup. Missing numbers
// are NaN.
type GameOdds struct {
	EventID      string
	CommenceTime string
	Home         string
	Away         string

	SpreadHome float64
	SpreadAway float64
	Total      float64
	MLHome     float64
	MLAway     float64
	WinHome    float64
	WinAway    float64

	CircaSpreadHome float64
	CircaSpreadAway float64
	CircaTotal      float64

	BooksSpreads int
	BooksTotals  int
	BooksH2H     int
}

// AmericanToProb converts an American price to an implied probability.
// Returns NaN for a missing price.
func AmericanToProb(price float64) float64 {
	if math.IsNaN(price) {
		return math.NaN()
	}
	if price > 0 {
		return 100.0 / (price + 100.0)
	}
	return -price / (-price + 100.0)
}

// normalizePair forces home/away spread points to mirror each other,
// trusting the home number on disagreement.
func normalizePair(h, a float64) (float64, float64) {
	switch {
	case math.IsNaN(h) && math.IsNaN(a):
		return math.NaN(), math.NaN()
	case math.IsNaN(h):
		return -a, a
	case math.IsNaN(a):
		return h, -h
	case math.Abs(h+a) > 1e-6:
		return h, -h
	}
	return h, a
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	s := append([]float64{}, vals...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func findMarket(b Bookmaker, key string) *Market {
	for i := range b.Markets {
		if strings.EqualFold(b.Markets[i].Key, key) {
			return &b.Markets[i]
		}
	}
	return nil
}

// Consensus flattens one event into median lines across books, keeping
// Circa's numbers separately when that book is present. Returns false when
// either team name fails to map to an abbreviation.
func Consensus(ev Event) (GameOdds, bool) {
	home := teams.Norm(ev.HomeTeam)
	away := teams.Norm(ev.AwayTeam)
	if !teams.Known(home) || !teams.Known(away) {
		return GameOdds{}, false
	}

	g := GameOdds{
		EventID:      ev.ID,
		CommenceTime: ev.CommenceTime,
		Home:         home,
		Away:         away,
		SpreadHome:   math.NaN(), SpreadAway: math.NaN(), Total: math.NaN(),
		MLHome: math.NaN(), MLAway: math.NaN(),
		WinHome: math.NaN(), WinAway: math.NaN(),
		CircaSpreadHome: math.NaN(), CircaSpreadAway: math.NaN(), CircaTotal: math.NaN(),
	}

	var spreadH, spreadA, totals, mlH, mlA []float64
	for _, book := range ev.Bookmakers {
		if m := findMarket(book, "h2h"); m != nil {
			for _, o := range m.Outcomes {
				switch strings.ToUpper(o.Name) {
				case strings.ToUpper(ev.HomeTeam):
					mlH = append(mlH, o.Price)
				case strings.ToUpper(ev.AwayTeam):
					mlA = append(mlA, o.Price)
				}
			}
		}

		hh, aa := math.NaN(), math.NaN()
		if m := findMarket(book, "spreads"); m != nil {
			for _, o := range m.Outcomes {
				if o.Point == nil {
					continue
				}
				switch strings.ToUpper(o.Name) {
				case strings.ToUpper(ev.HomeTeam):
					hh = *o.Point
				case strings.ToUpper(ev.AwayTeam):
					aa = *o.Point
				}
			}
		}
		hh, aa = normalizePair(hh, aa)
		if !math.IsNaN(hh) {
			spreadH = append(spreadH, hh)
		}
		if !math.IsNaN(aa) {
			spreadA = append(spreadA, aa)
		}

		tot := math.NaN()
		if m := findMarket(book, "totals"); m != nil {
			for _, o := range m.Outcomes {
				name := strings.ToLower(o.Name)
				if (name == "over" || name == "under") && o.Point != nil {
					tot = *o.Point
					break
				}
			}
		}
		if !math.IsNaN(tot) {
			totals = append(totals, tot)
		}

		if strings.Contains(strings.ToLower(book.Title+book.Key), "circa") {
			if !math.IsNaN(hh) && !math.IsNaN(aa) {
				g.CircaSpreadHome, g.CircaSpreadAway = hh, aa
			}
			if !math.IsNaN(tot) {
				g.CircaTotal = tot
			}
		}
	}

	g.SpreadHome, g.SpreadAway = normalizePair(median(spreadH), median(spreadA))
	g.Total = median(totals)
	g.MLHome = median(mlH)
	g.MLAway = median(mlA)
	g.WinHome = AmericanToProb(g.MLHome)
	g.WinAway = AmericanToProb(g.MLAway)
	g.BooksSpreads = max(len(spreadH), len(spreadA))
	g.BooksTotals = len(totals)
	g.BooksH2H = max(len(mlH), len(mlA))
	return g, true
}

// Client talks to The Odds API.
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: apiBase,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// seasonWindow bounds a season's games: August through mid-February.
func seasonWindow(season int) (string, string) {
	return fmt.Sprintf("%d-08-01T00:00:00Z", season),
		fmt.Sprintf("%d-02-15T08:00:00Z", season+1)
}

// FetchSeason pulls every NFL event with current h2h/spreads/totals markets
// inside the season window and flattens each into consensus numbers.
func (c *Client) FetchSeason(ctx context.Context, season int, regions string) ([]GameOdds, error) {
	if regions == "" {
		regions = "us"
	}
	from, to := seasonWindow(season)

	q := url.Values{}
	q.Set("apiKey", c.APIKey)
	q.Set("regions", regions)
	q.Set("markets", "h2h,spreads,totals")
	q.Set("oddsFormat", "american")
	q.Set("dateFormat", "iso")
	q.Set("commenceTimeFrom", from)
	q.Set("commenceTimeTo", to)
	u := fmt.Sprintf("%s/sports/americanfootball_nfl/odds?%s", c.BaseURL, q.Encode())

	req, _ := http.NewRequestWithContext(ctx, "GET", u, nil)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch odds: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("odds api status %d: %s", resp.StatusCode, string(b))
	}
	if remain := resp.Header.Get("x-requests-remaining"); remain != "" {
		log.Printf("odds api: used=%s remaining=%s", resp.Header.Get("x-requests-used"), remain)
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode odds json: %w", err)
	}

	out := make([]GameOdds, 0, len(events))
	for _, ev := range events {
		if g, ok := Consensus(ev); ok {
			out = append(out, g)
		} else if os.Getenv("DEBUG") == "1" {
			log.Printf("DEBUG odds: unmapped teams %q / %q", ev.HomeTeam, ev.AwayTeam)
		}
	}
	return out, nil
}

// ResolveAPIKey prefers ODDS_API_KEY from the environment and falls back to
// the Secrets Manager secret named by ODDS_SECRET_NAME (JSON with an
// "api_key" field) when running deployed.
func ResolveAPIKey(ctx context.Context) (string, error) {
	if k := strings.TrimSpace(os.Getenv("ODDS_API_KEY")); k != "" {
		return k, nil
	}
	secretName := strings.TrimSpace(os.Getenv("ODDS_SECRET_NAME"))
	if secretName == "" {
		return "", fmt.Errorf("set ODDS_API_KEY or ODDS_SECRET_NAME")
	}
	data, err := retrievesecrets.RetrieveSecret(ctx, secretName, retrievesecrets.SecretTypeJSON, "")
	if err != nil {
		return "", fmt.Errorf("retrieve secret %s: %w", secretName, err)
	}
	k, ok := data["api_key"]
	if !ok || k == "" {
		return "", fmt.Errorf("secret %s has no api_key field", secretName)
	}
	return k, nil
}
