package odds

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nflpicks/survivor-tools/internal/roadmap"
)

func fp(v float64) *float64 { return &v }

func TestAmericanToProb(t *testing.T) {
	cases := []struct {
		price, want float64
	}{
		{-150, 0.6},
		{150, 0.4},
		{-110, 110.0 / 210.0},
		{100, 0.5},
	}
	for _, c := range cases {
		got := AmericanToProb(c.price)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("AmericanToProb(%v) = %v, want %v", c.price, got, c.want)
		}
	}
	if !math.IsNaN(AmericanToProb(math.NaN())) {
		t.Error("AmericanToProb(NaN) should be NaN")
	}
}

func TestNormalizePair(t *testing.T) {
	h, a := normalizePair(-3.5, math.NaN())
	if h != -3.5 || a != 3.5 {
		t.Errorf("missing away: got %v/%v", h, a)
	}
	h, a = normalizePair(math.NaN(), 7)
	if h != -7 || a != 7 {
		t.Errorf("missing home: got %v/%v", h, a)
	}
	// disagreement resolves to the home number
	h, a = normalizePair(-3, 2.5)
	if h != -3 || a != 3 {
		t.Errorf("disagreement: got %v/%v", h, a)
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("odd count: got %v", got)
	}
	if got := median([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("even count: got %v", got)
	}
	if !math.IsNaN(median(nil)) {
		t.Error("empty median should be NaN")
	}
}

func sampleEvent() Event {
	return Event{
		ID:           "abc123",
		CommenceTime: "2025-10-05T17:00:00Z",
		HomeTeam:     "Kansas City Chiefs",
		AwayTeam:     "Las Vegas Raiders",
		Bookmakers: []Bookmaker{
			{
				Key: "draftkings", Title: "DraftKings",
				Markets: []Market{
					{Key: "h2h", Outcomes: []Outcome{
						{Name: "Kansas City Chiefs", Price: -150},
						{Name: "Las Vegas Raiders", Price: 130},
					}},
					{Key: "spreads", Outcomes: []Outcome{
						{Name: "Kansas City Chiefs", Price: -110, Point: fp(-3.0)},
						{Name: "Las Vegas Raiders", Price: -110, Point: fp(3.0)},
					}},
					{Key: "totals", Outcomes: []Outcome{
						{Name: "Over", Price: -110, Point: fp(45.5)},
						{Name: "Under", Price: -110, Point: fp(45.5)},
					}},
				},
			},
			{
				Key: "circasports", Title: "Circa Sports",
				Markets: []Market{
					{Key: "h2h", Outcomes: []Outcome{
						{Name: "Kansas City Chiefs", Price: -160},
						{Name: "Las Vegas Raiders", Price: 140},
					}},
					{Key: "spreads", Outcomes: []Outcome{
						{Name: "Kansas City Chiefs", Price: -110, Point: fp(-3.5)},
						{Name: "Las Vegas Raiders", Price: -110, Point: fp(3.5)},
					}},
					{Key: "totals", Outcomes: []Outcome{
						{Name: "Under", Price: -110, Point: fp(46.0)},
					}},
				},
			},
		},
	}
}

func TestConsensus(t *testing.T) {
	g, ok := Consensus(sampleEvent())
	if !ok {
		t.Fatal("expected mapped teams")
	}
	if g.Home != "KC" || g.Away != "LV" {
		t.Fatalf("teams: got %s/%s", g.Home, g.Away)
	}
	if g.MLHome != -155 {
		t.Errorf("MLHome median: got %v, want -155", g.MLHome)
	}
	wantWin := 155.0 / 255.0
	if math.Abs(g.WinHome-wantWin) > 1e-9 {
		t.Errorf("WinHome: got %v, want %v", g.WinHome, wantWin)
	}
	if g.SpreadHome != -3.25 || g.SpreadAway != 3.25 {
		t.Errorf("spread medians: got %v/%v", g.SpreadHome, g.SpreadAway)
	}
	if g.Total != 45.75 {
		t.Errorf("total median: got %v", g.Total)
	}
	if g.CircaSpreadHome != -3.5 || g.CircaTotal != 46.0 {
		t.Errorf("circa lines: got %v/%v", g.CircaSpreadHome, g.CircaTotal)
	}
	if g.BooksH2H != 2 || g.BooksSpreads != 2 || g.BooksTotals != 2 {
		t.Errorf("book counts: got %d/%d/%d", g.BooksH2H, g.BooksSpreads, g.BooksTotals)
	}
}

func TestConsensusUnknownTeam(t *testing.T) {
	ev := sampleEvent()
	ev.HomeTeam = "London Monarchs"
	if _, ok := Consensus(ev); ok {
		t.Error("unmapped team should be rejected")
	}
}

func TestFetchSeason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apiKey") != "k" {
			t.Errorf("missing apiKey param")
		}
		if r.URL.Query().Get("markets") != "h2h,spreads,totals" {
			t.Errorf("markets param: got %q", r.URL.Query().Get("markets"))
		}
		w.Header().Set("x-requests-remaining", "499")
		w.Write([]byte(`[{"id":"e1","commence_time":"2025-09-07T17:00:00Z","home_team":"Green Bay Packers","away_team":"Chicago Bears","bookmakers":[{"key":"fanduel","title":"FanDuel","markets":[{"key":"h2h","outcomes":[{"name":"Green Bay Packers","price":-200},{"name":"Chicago Bears","price":170}]}]}]}]`))
	}))
	defer srv.Close()

	c := NewClient("k")
	c.BaseURL = srv.URL
	games, err := c.FetchSeason(context.Background(), 2025, "us")
	if err != nil {
		t.Fatalf("FetchSeason: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("got %d games", len(games))
	}
	if games[0].Home != "GB" || games[0].Away != "CHI" {
		t.Errorf("teams: got %s/%s", games[0].Home, games[0].Away)
	}
	wantWin := 200.0 / 300.0
	if math.Abs(games[0].WinHome-wantWin) > 1e-9 {
		t.Errorf("WinHome: got %v", games[0].WinHome)
	}
}

func TestGameKeyOrderFree(t *testing.T) {
	if GameKey("KC", "LV") != GameKey("LV", "KC") {
		t.Error("key should not depend on order")
	}
	if GameKey("kc", "lv") != "KC|LV" {
		t.Errorf("got %q", GameKey("kc", "lv"))
	}
}

func TestMergeWinProbs(t *testing.T) {
	home := roadmap.NewRow()
	home.Week, home.Team, home.Opponent, home.HomeOrAway = 5, "KC", "LV", "Home"
	away := roadmap.NewRow()
	away.Week, away.Team, away.Opponent, away.HomeOrAway = 5, "LV", "KC", "Away"
	bye := roadmap.NewRow()
	bye.Week, bye.Team, bye.Opponent = 5, "DET", "BYE"
	other := roadmap.NewRow()
	other.Week, other.Team, other.Opponent = 5, "GB", "MIN"
	other.ProjWinProb = 0.55

	tab := roadmap.New([]roadmap.Row{home, away, bye, other})
	games := []GameOdds{{
		Home: "KC", Away: "LV",
		MLHome: -155, MLAway: 135,
		WinHome: 0.62, WinAway: 0.38,
		SpreadHome: -3.5, SpreadAway: 3.5, Total: 45.5,
	}}

	n := MergeWinProbs(tab, games)
	if n != 2 {
		t.Fatalf("updated %d rows, want 2", n)
	}
	if tab.Rows[0].ProjWinProb != 0.62 {
		t.Errorf("home win prob: got %v", tab.Rows[0].ProjWinProb)
	}
	if tab.Rows[1].ProjWinProb != 0.38 {
		t.Errorf("away win prob: got %v", tab.Rows[1].ProjWinProb)
	}
	if tab.Rows[0].Extra["current_moneyline"] != "-155" {
		t.Errorf("moneyline passthrough: got %q", tab.Rows[0].Extra["current_moneyline"])
	}
	if tab.Rows[1].Extra["current_spread"] != "3.5" {
		t.Errorf("away spread passthrough: got %q", tab.Rows[1].Extra["current_spread"])
	}
	// untouched rows keep their numbers
	if tab.Rows[3].ProjWinProb != 0.55 {
		t.Errorf("unmatched row changed: got %v", tab.Rows[3].ProjWinProb)
	}
	found := false
	for _, c := range tab.ExtraColumns() {
		if c == "current_total" {
			found = true
		}
	}
	if !found {
		t.Error("current_total not registered as output column")
	}
}
