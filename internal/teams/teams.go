package teams

import "strings"

// Canonical 32-team abbreviations used across every CSV in this repo.
var Abbrs = []string{
	"ARI", "ATL", "BAL", "BUF", "CAR", "CHI", "CIN", "CLE",
	"DAL", "DEN", "DET", "GB", "HOU", "IND", "JAX", "KC",
	"LAC", "LAR", "LV", "MIA", "MIN", "NE", "NO", "NYG",
	"NYJ", "PHI", "PIT", "SEA", "SF", "TB", "TEN", "WSH",
}

// full name → abbreviation, as the odds feed spells them
var nameToAbbr = map[string]string{
	// AFC East
	"BUFFALO BILLS": "BUF", "MIAMI DOLPHINS": "MIA", "NEW ENGLAND PATRIOTS": "NE", "NEW YORK JETS": "NYJ",
	// AFC North
	"BALTIMORE RAVENS": "BAL", "CINCINNATI BENGALS": "CIN", "CLEVELAND BROWNS": "CLE", "PITTSBURGH STEELERS": "PIT",
	// AFC South
	"HOUSTON TEXANS": "HOU", "INDIANAPOLIS COLTS": "IND", "JACKSONVILLE JAGUARS": "JAX", "TENNESSEE TITANS": "TEN",
	// AFC West
	"DENVER BRONCOS": "DEN", "KANSAS CITY CHIEFS": "KC", "LAS VEGAS RAIDERS": "LV", "LOS ANGELES CHARGERS": "LAC",
	// NFC East
	"DALLAS COWBOYS": "DAL", "NEW YORK GIANTS": "NYG", "PHILADELPHIA EAGLES": "PHI", "WASHINGTON COMMANDERS": "WSH",
	// NFC North
	"CHICAGO BEARS": "CHI", "DETROIT LIONS": "DET", "GREEN BAY PACKERS": "GB", "MINNESOTA VIKINGS": "MIN",
	// NFC South
	"ATLANTA FALCONS": "ATL", "CAROLINA PANTHERS": "CAR", "NEW ORLEANS SAINTS": "NO", "TAMPA BAY BUCCANEERS": "TB",
	// NFC West
	"ARIZONA CARDINALS": "ARI", "LOS ANGELES RAMS": "LAR", "SAN FRANCISCO 49ERS": "SF", "SEATTLE SEAHAWKS": "SEA",
	// legacy / alternate spellings seen in the wild
	"WASHINGTON REDSKINS": "WSH", "WASHINGTON FOOTBALL TEAM": "WSH",
	"LA RAMS": "LAR", "LA CHARGERS": "LAC", "OAKLAND RAIDERS": "LV", "SAN DIEGO CHARGERS": "LAC",
	"ST LOUIS RAMS": "LAR", "ST. LOUIS RAMS": "LAR",
}

// short-code aliases that show up in scraped schedules and old CSVs
var abbrAliases = map[string]string{
	"WAS": "WSH", "ARZ": "ARI", "LA": "LAR",
	"JAC": "JAX", "GNB": "GB", "KAN": "KC", "NWE": "NE",
	"NOR": "NO", "SFO": "SF", "TAM": "TB", "LVR": "LV",
	"OAK": "LV", "SD": "LAC", "STL": "LAR", "CLV": "CLE",
	"HST": "HOU", "BLT": "BAL",
}

var abbrSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Abbrs))
	for _, a := range Abbrs {
		m[a] = struct{}{}
	}
	return m
}()

// Norm maps any team spelling (abbreviation, alias, or full name) to the
// canonical abbreviation. Unknown input is returned upper-trimmed so the
// caller can decide whether to reject it.
func Norm(s string) string {
	up := strings.ToUpper(strings.TrimSpace(s))
	if up == "" {
		return ""
	}
	if _, ok := abbrSet[up]; ok {
		return up
	}
	if a, ok := abbrAliases[up]; ok {
		return a
	}
	if a, ok := nameToAbbr[up]; ok {
		return a
	}
	// strip punctuation and collapse whitespace, then retry the name map
	var b strings.Builder
	for _, ch := range up {
		if ch == ' ' || ch == '\t' || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		}
	}
	up2 := strings.Join(strings.Fields(b.String()), " ")
	if a, ok := nameToAbbr[up2]; ok {
		return a
	}
	return up
}

// Known reports whether s normalizes to one of the 32 canonical codes.
func Known(s string) bool {
	_, ok := abbrSet[Norm(s)]
	return ok
}
