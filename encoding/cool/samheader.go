package cool

import (
	"io"

	"github.com/grailbio/contact/matrix"
	"github.com/grailbio/hts/sam"
	"github.com/pkg/errors"
)

// ChromHeader returns a SAM header whose @SQ lines list the chromosomes of m
// in their current order.
func ChromHeader(m *matrix.Matrix) (*sam.Header, error) {
	refs := make([]*sam.Reference, m.NumChroms())
	for i := range refs {
		c, err := m.Chrom(i)
		if err != nil {
			return nil, err
		}
		if refs[i], err = sam.NewReference(c.Name, "", "", c.Length, nil, nil); err != nil {
			return nil, errors.Wrapf(err, "chromosome %q", c.Name)
		}
	}
	return sam.NewHeader(nil, refs)
}

// WriteChromHeader writes the SAM text header of m to w.
func WriteChromHeader(w io.Writer, m *matrix.Matrix) error {
	h, err := ChromHeader(m)
	if err != nil {
		return err
	}
	text, err := h.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
