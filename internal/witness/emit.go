package witness

import "io"

// WriteJSONL writes one canonical JSON object per line, one per witness, in
// the order given (callers pass an already canonically-sorted slice).
func WriteJSONL(w io.Writer, witnesses []Witness) error {
	for _, wit := range witnesses {
		data, err := wit.MarshalCanonical()
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		if _, err := w.Write([]byte("\n")); err != nil {
			return err
		}
	}
	return nil
}
