package captions

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"
	"unicode"

	"bitbucket.org/creachadair/stringset"
)

const (
	// nearDuplicateThreshold is the minimum word-set similarity at which
	// two adjacent cues are treated as revisions of the same line.
	nearDuplicateThreshold = 0.9

	// nearDuplicateMinWords keeps short cues ("yeah", "okay so") out of
	// the similarity test, where a single shared word scores high.
	nearDuplicateMinWords = 4

	// transitionMax is the longest cue treated as a transition. YouTube
	// auto-captions re-send the previous line in a 10ms cue between
	// rolling lines.
	transitionMax = 50 * time.Millisecond

	// minOverlapTokens is the shortest suffix/prefix overlap trimmed from
	// a rolling cue.
	minOverlapTokens = 2
)

// token is one comparable unit of cue text: a whitespace-separated word,
// or a single CJK character. start is its byte offset in the source text.
type token struct {
	key   string
	start int
}

// pending is a segment under construction. end is the latest end of
// any cue merged into it. transition marks a pending cue that is itself
// a transition cue, or a segment whose last absorbed cue was one.
type pending struct {
	seg        Segment
	toks       []token
	end        time.Duration
	transition bool
}

// isTransition reports whether c is short enough to be a transition cue.
// Zero-length cues carry no timing and are not transitions.
func isTransition(c RawCue) bool {
	d := c.End - c.Start
	return d > 0 && d <= transitionMax
}

// rolling reports whether p may re-send text of last: it starts while
// last is still on screen, or a transition cue separates them.
func rolling(last, p pending) bool {
	return p.seg.Start < last.end || last.transition || p.transition
}

// Normalize collapses rolling and duplicated cues into segments.
//
// Cues are ordered by start time (stable for ties) and compared against
// the most recently accepted segment:
//   - an exact repeat of the segment is dropped;
//   - a cue containing the segment replaces it, keeping the earlier start;
//   - a near-duplicate (same words, minor revisions) keeps the longer text.
//
// Two more rules apply only to rolling cues, those that overlap the
// segment in time or sit next to a transition cue:
//   - a cue already contained in the segment is dropped;
//   - a cue that begins with at least two tokens of the segment's tail has
//     that overlap trimmed before being considered again.
//
// Back-to-back cues that do not overlap keep all their words.
//
// Replacement re-checks the merged cue against the segment before it, so
// no rule applies to any adjacent pair in the result and
// Normalize(Cues(Normalize(x))) equals Normalize(x).
func Normalize(cues []RawCue) []Segment {
	sorted := slices.Clone(cues)
	slices.SortStableFunc(sorted, func(a, b RawCue) int {
		return cmp.Compare(a.Start, b.Start)
	})

	var out []pending
	for _, c := range sorted {
		text := strings.TrimSpace(c.Text)
		toks := tokenize(text)
		if len(toks) == 0 {
			continue
		}
		out = push(out, pending{
			seg:        Segment{Start: c.Start, Text: text},
			toks:       toks,
			end:        max(c.End, c.Start),
			transition: isTransition(c),
		})
	}

	segs := make([]Segment, len(out))
	for i, p := range out {
		segs[i] = p.seg
	}
	return segs
}

// Compact re-applies normalization to segments whose text has changed,
// e.g. after cleanup made two neighbours identical. Segments left with
// no words are removed.
func Compact(segs []Segment) []Segment {
	return Normalize(Cues(segs))
}

func push(out []pending, p pending) []pending {
	for len(out) > 0 {
		last := &out[len(out)-1]
		lk, pk := keys(last.toks), keys(p.toks)
		roll := rolling(*last, p)

		switch {
		case slices.Equal(lk, pk), roll && containsRun(lk, pk):
			last.end = max(last.end, p.end)
			last.transition = p.transition
			return out

		case containsRun(pk, lk):
			p = absorb(p, *last)
			out = out[:len(out)-1]

		case nearDuplicate(lk, pk):
			if len(pk) <= len(lk) {
				last.end = max(last.end, p.end)
				last.transition = p.transition
				return out
			}
			p = absorb(p, *last)
			out = out[:len(out)-1]

		default:
			k := 0
			if roll {
				k = overlap(lk, pk)
			}
			if k < minOverlapTokens {
				return append(out, p)
			}
			// k < len(pk): a full overlap would have matched containsRun.
			p.seg.Text = strings.TrimSpace(p.seg.Text[p.toks[k].start:])
			p.toks = tokenize(p.seg.Text)
		}
	}
	return append(out, p)
}

// absorb gives p the earlier start and later end of p and last.
func absorb(p, last pending) pending {
	p.seg.Start = min(p.seg.Start, last.seg.Start)
	p.end = max(p.end, last.end)
	return p
}

// tokenize splits text into comparison tokens. Keys are lower-cased with
// punctuation and symbols removed; tokens with an empty key are dropped.
func tokenize(text string) []token {
	var toks []token
	wordStart := -1

	flush := func(end int) {
		if wordStart < 0 {
			return
		}
		if key := tokenKey(text[wordStart:end]); key != "" {
			toks = append(toks, token{key: key, start: wordStart})
		}
		wordStart = -1
	}

	for i, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush(i)
		case isCJK(r):
			flush(i)
			toks = append(toks, token{key: string(r), start: i})
		default:
			if wordStart < 0 {
				wordStart = i
			}
		}
	}
	flush(len(text))
	return toks
}

func tokenKey(word string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, word)
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}

func keys(toks []token) []string {
	ks := make([]string, len(toks))
	for i, t := range toks {
		ks[i] = t.key
	}
	return ks
}

// containsRun reports whether needle occurs as a contiguous run in hay.
func containsRun(hay, needle []string) bool {
	if len(needle) > len(hay) {
		return false
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		if slices.Equal(hay[i:i+len(needle)], needle) {
			return true
		}
	}
	return false
}

// overlap returns the length of the longest suffix of prev that is also
// a proper prefix of next.
func overlap(prev, next []string) int {
	for k := min(len(prev), len(next)-1); k > 0; k-- {
		if slices.Equal(prev[len(prev)-k:], next[:k]) {
			return k
		}
	}
	return 0
}

// nearDuplicate compares the distinct words of a and b with the
// Otsuka-Ochiai coefficient.
func nearDuplicate(a, b []string) bool {
	wa := stringset.New(a...)
	wb := stringset.New(b...)
	if wa.Len() < nearDuplicateMinWords || wb.Len() < nearDuplicateMinWords {
		return false
	}
	shared := float64(wa.Intersect(wb).Len())
	return shared/math.Sqrt(float64(wa.Len()*wb.Len())) >= nearDuplicateThreshold
}
