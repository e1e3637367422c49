package content

import (
	"sort"
	"strings"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/common"
)

// DefaultTitle replaces empty post titles.
const DefaultTitle = "Desi Meme 😂"

// TopBand is how many of the best-scored candidates a pick is sampled from.
const TopBand = 10

var mediaSuffixes = []string{".jpg", ".jpeg", ".png", ".gif"}

// Item is one post as listed by a pool.
type Item struct {
	ID       string
	Title    string
	URL      string
	Score    int
	Over18   bool
	Stickied bool
	IsVideo  bool
}

// Candidate is a post that passed the suitability filters.
type Candidate struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	MediaURL string `json:"mediaUrl"`
	Score    int    `json:"score"`
}

// Rank filters items and returns the best TopBand candidates by score,
// highest first. Adult, pinned, video and already shown posts are dropped,
// and only direct image links survive.
func Rank(items []Item, shown map[string]struct{}) []Candidate {
	out := make([]Candidate, 0, len(items))
	for _, it := range items {
		if it.Over18 || it.Stickied || it.IsVideo {
			continue
		}
		if _, seen := shown[it.ID]; seen {
			continue
		}

		u := common.ReplaceSuffixFold(it.URL, ".gifv", ".gif")
		if !common.HasAnySuffix(u, mediaSuffixes...) {
			continue
		}

		title := strings.TrimSpace(it.Title)
		if title == "" {
			title = DefaultTitle
		}

		out = append(out, Candidate{ID: it.ID, Title: title, MediaURL: u, Score: it.Score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > TopBand {
		out = out[:TopBand]
	}
	return out
}
