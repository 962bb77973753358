package minter

import (
	"errors"
	"fmt"
	"strings"
)

// alphabet is the extended-digit alphabet used for 'e' mask positions and
// for check characters. Vowels and 'l' are excluded so minted names never
// spell words.
const alphabet = "0123456789bcdfghjkmnpqrstvwxz"

// AtLastAdd3 extends the mask by three extended digits when a minter runs
// out of names, giving the namespace a new, larger generation.
const AtLastAdd3 = "add3"

// subcounterSpread is the target number of subcounters per generation; the
// spray across them keeps minted names non-sequential.
const subcounterSpread = 290

var (
	ErrBadTemplate = errors.New("malformed minter template")
	ErrExhausted   = errors.New("minter namespace exhausted")
	ErrOverflow    = errors.New("number exceeds mask capacity")
	ErrBadState    = errors.New("inconsistent minter state")
)

// State is the persisted position of one minter. Names are minted by
// spraying a monotonically increasing ordinal across subcounters, rendering
// the resulting number through the template mask, and appending a check
// character when the mask asks for one.
type State struct {
	Template    string       // Full template, e.g. "99999/fk4{eedk}".
	Prefix      string       // Template part before the mask.
	Mask        string       // Mask characters: 'e', 'd', and a final 'k'.
	AtLast      string       // Exhaustion policy: AtLastAdd3 or empty.
	BaseCount   int64        // Numbers consumed by earlier mask generations.
	Counter     int64        // Names minted in the current generation.
	Top         int64        // Capacity of the current generation.
	PerCounter  int64        // Names per subcounter.
	Subcounters []Subcounter // Spray state, one per slice of the namespace.
}

// Subcounter tracks how much of one namespace slice has been minted.
type Subcounter struct {
	Value int64 // Names minted from this slice.
	Top   int64 // Slice capacity.
}

// parseTemplate splits a template into its prefix and mask. The mask is
// enclosed in braces at the end of the template and may use 'e' (extended
// digit), 'd' (decimal digit), and one trailing 'k' (check character).
func parseTemplate(template string) (prefix, mask string, err error) {
	open := strings.Index(template, "{")
	if open < 0 || !strings.HasSuffix(template, "}") {
		return "", "", fmt.Errorf("%w: %q", ErrBadTemplate, template)
	}
	prefix = template[:open]
	mask = template[open+1 : len(template)-1]
	if mask == "" {
		return "", "", fmt.Errorf("%w: empty mask in %q", ErrBadTemplate, template)
	}
	for i, c := range mask {
		switch c {
		case 'e', 'd':
		case 'k':
			if i != len(mask)-1 {
				return "", "", fmt.Errorf("%w: check character must be last in %q", ErrBadTemplate, template)
			}
		default:
			return "", "", fmt.Errorf("%w: mask character %q in %q", ErrBadTemplate, c, template)
		}
	}
	if capacity(mask) == 0 {
		return "", "", fmt.Errorf("%w: mask %q has no value characters", ErrBadTemplate, mask)
	}
	return prefix, mask, nil
}

// capacity returns how many distinct names a mask can render. The check
// character is derived, not counted.
func capacity(mask string) int64 {
	total := int64(1)
	counted := false
	for _, c := range mask {
		switch c {
		case 'e':
			total *= int64(len(alphabet))
			counted = true
		case 'd':
			total *= 10
			counted = true
		}
	}
	if !counted {
		return 0
	}
	return total
}

// newState builds the initial state for a template.
func newState(template string) (*State, error) {
	prefix, mask, err := parseTemplate(template)
	if err != nil {
		return nil, err
	}
	st := &State{
		Template: template,
		Prefix:   prefix,
		Mask:     mask,
		AtLast:   AtLastAdd3,
	}
	st.resetGeneration(capacity(mask))
	return st, nil
}

// resetGeneration sizes the counters and subcounters for a generation with
// the given capacity.
func (st *State) resetGeneration(top int64) {
	st.Counter = 0
	st.Top = top
	st.PerCounter = top/subcounterSpread + 1
	count := top / st.PerCounter
	if top%st.PerCounter != 0 {
		count++
	}
	st.Subcounters = make([]Subcounter, count)
	for i := range st.Subcounters {
		size := st.PerCounter
		if remaining := top - int64(i)*st.PerCounter; remaining < size {
			size = remaining
		}
		st.Subcounters[i].Top = size
	}
}

// extend moves to the next mask generation under the add3 policy: three
// extended digits are prepended to the mask and numbering continues past the
// exhausted generation, so longer names never collide with shorter ones.
func (st *State) extend() {
	st.BaseCount += st.Top
	st.Mask = "eee" + st.Mask
	st.Template = st.Prefix + "{" + st.Mask + "}"
	st.resetGeneration(capacity(st.Mask) - st.BaseCount)
}

// next mints one name, advancing the state.
func (st *State) next() (string, error) {
	if st.Counter >= st.Top {
		if st.AtLast != AtLastAdd3 {
			return "", fmt.Errorf("%w: %s", ErrExhausted, st.Template)
		}
		st.extend()
	}

	active := make([]int, 0, len(st.Subcounters))
	for i := range st.Subcounters {
		if st.Subcounters[i].Value < st.Subcounters[i].Top {
			active = append(active, i)
		}
	}
	if len(active) == 0 {
		return "", fmt.Errorf("%w: %s", ErrExhausted, st.Template)
	}

	j := active[st.Counter%int64(len(active))]
	ordinal := int64(j)*st.PerCounter + st.Subcounters[j].Value
	st.Subcounters[j].Value++
	st.Counter++

	digits, err := render(st.Mask, st.BaseCount+ordinal)
	if err != nil {
		return "", err
	}
	name := st.Prefix + digits
	if strings.HasSuffix(st.Mask, "k") {
		name += string(CheckChar(name))
	}
	return name, nil
}

// render converts a number to mask characters, least significant rightmost.
func render(mask string, n int64) (string, error) {
	out := make([]byte, 0, len(mask))
	for i := len(mask) - 1; i >= 0; i-- {
		switch mask[i] {
		case 'k':
			continue
		case 'e':
			out = append(out, alphabet[n%int64(len(alphabet))])
			n /= int64(len(alphabet))
		case 'd':
			out = append(out, byte('0'+n%10))
			n /= 10
		}
	}
	if n > 0 {
		return "", fmt.Errorf("%w: mask %q", ErrOverflow, mask)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

// CheckChar computes the check character over a name: each character's
// alphabet ordinal (zero for characters outside the alphabet, such as '/')
// is weighted by its one-based position, summed, and reduced modulo the
// alphabet size.
func CheckChar(name string) byte {
	sum := 0
	for i, r := range name {
		idx := strings.IndexRune(alphabet, r)
		if idx < 0 {
			idx = 0
		}
		sum += idx * (i + 1)
	}
	return alphabet[sum%len(alphabet)]
}

// Check reports whether the last character of a name is the correct check
// character for the rest of it.
func Check(name string) bool {
	if len(name) < 2 {
		return false
	}
	return name[len(name)-1] == CheckChar(name[:len(name)-1])
}

// extendedMask reports whether got is the template mask with zero or more
// "eee" generation prefixes from the add3 policy.
func extendedMask(got, templ string) bool {
	if !strings.HasSuffix(got, templ) {
		return false
	}
	ext := got[:len(got)-len(templ)]
	return len(ext)%3 == 0 && strings.Count(ext, "e") == len(ext)
}

// Validate reports whether the state is internally consistent. Every derived
// field is recomputed and compared against its stored value.
func (st *State) Validate() error {
	prefix, mask, err := parseTemplate(st.Template)
	if err != nil {
		return err
	}
	if prefix != st.Prefix || !extendedMask(st.Mask, mask) {
		return fmt.Errorf("%w: template %q does not match prefix %q mask %q", ErrBadState, st.Template, st.Prefix, st.Mask)
	}
	if st.AtLast != "" && st.AtLast != AtLastAdd3 {
		return fmt.Errorf("%w: unknown atlast policy %q", ErrBadState, st.AtLast)
	}
	if st.BaseCount < 0 {
		return fmt.Errorf("%w: negative basecount %d", ErrBadState, st.BaseCount)
	}
	if st.Counter < 0 || st.Counter > st.Top {
		return fmt.Errorf("%w: counter %d outside [0, %d]", ErrBadState, st.Counter, st.Top)
	}
	if st.BaseCount+st.Top != capacity(st.Mask) {
		return fmt.Errorf("%w: basecount %d and top %d do not cover mask capacity %d",
			ErrBadState, st.BaseCount, st.Top, capacity(st.Mask))
	}
	if st.PerCounter != st.Top/subcounterSpread+1 {
		return fmt.Errorf("%w: percounter %d for top %d", ErrBadState, st.PerCounter, st.Top)
	}

	var minted, space int64
	for _, sc := range st.Subcounters {
		if sc.Value < 0 || sc.Value > sc.Top || sc.Top > st.PerCounter {
			return fmt.Errorf("%w: subcounter value %d outside [0, %d]", ErrBadState, sc.Value, sc.Top)
		}
		minted += sc.Value
		space += sc.Top
	}
	if minted != st.Counter {
		return fmt.Errorf("%w: subcounters sum to %d, counter is %d", ErrBadState, minted, st.Counter)
	}
	if space != st.Top {
		return fmt.Errorf("%w: subcounter capacity %d, top is %d", ErrBadState, space, st.Top)
	}
	return nil
}
