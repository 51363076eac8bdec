package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/golang/glog"
)

// Format selects the line layout understood by Load.
type Format int

const (
	// FormatWordCount lines look like [docId wordId:wordCount ... wordId:wordCount]
	FormatWordCount Format = iota
	// FormatTokens lines hold one document as space separated word ids
	FormatTokens
)

// Corpus is an integer encoded document collection over a vocabulary
// of fixed size. The document index is its position in Docs.
type Corpus struct {
	VocabSize int
	Docs      [][]uint32
	// DocIds holds the external id of each document, parallel to Docs
	DocIds []uint32
}

type WordCount struct {
	WordId uint32
	Count  uint32
}

// New builds a corpus from token streams and validates it.
func New(docs [][]uint32, vocabSize int) (*Corpus, error) {
	c := &Corpus{
		VocabSize: vocabSize,
		Docs:      docs,
		DocIds:    make([]uint32, len(docs)),
	}
	for i := range c.DocIds {
		c.DocIds[i] = uint32(i)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func ExpandWords(wcs []*WordCount) []uint32 {
	var words []uint32
	for _, wc := range wcs {
		for i := uint32(0); i < wc.Count; i += 1 {
			words = append(words, wc.WordId)
		}
	}
	return words
}

// DocNum is the number of documents.
func (this *Corpus) DocNum() int {
	return len(this.Docs)
}

// TokenNum is the total number of token occurrences.
func (this *Corpus) TokenNum() int {
	n := 0
	for _, doc := range this.Docs {
		n += len(doc)
	}
	return n
}

// Validate checks the vocabulary size, that there is at least one
// document and that every token lies in [0, VocabSize).
func (this *Corpus) Validate() error {
	if this.VocabSize <= 0 {
		return fmt.Errorf("%w: %d", ErrBadVocabSize, this.VocabSize)
	}
	if len(this.Docs) == 0 {
		return ErrEmptyCorpus
	}
	for m, doc := range this.Docs {
		if err := CheckTokens(doc, this.VocabSize); err != nil {
			return fmt.Errorf("document %d: %w", m, err)
		}
	}
	return nil
}

// CheckTokens fails on the first token outside [0, vocabSize).
func CheckTokens(doc []uint32, vocabSize int) error {
	for n, w := range doc {
		if uint64(w) >= uint64(vocabSize) {
			return fmt.Errorf("%w: position %d has id %d, vocabulary size %d",
				ErrTokenOutOfRange, n, w, vocabSize)
		}
	}
	return nil
}

// LoadFile opens fn and loads it with Load.
func LoadFile(fn string, format Format, vocabSize int) (*Corpus, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, format, vocabSize)
}

// Load reads a corpus in the given format. Lines that cannot be split
// into the expected fields are logged and skipped, while ids that are
// not valid uint32 numbers fail the load. The result is validated
// against vocabSize, which is never inferred from the data.
func Load(r io.Reader, format Format, vocabSize int) (*Corpus, error) {
	c := &Corpus{VocabSize: vocabSize}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx += 1
		doc := strings.TrimSpace(scanner.Text())
		if doc == "" {
			continue
		}

		var (
			docId uint32
			words []uint32
			err   error
		)
		switch format {
		case FormatWordCount:
			docId, words, err = parseWordCountLine(doc)
		case FormatTokens:
			docId = uint32(len(c.Docs))
			words, err = parseTokenLine(doc)
		default:
			return nil, fmt.Errorf("corpus: unknown format %d", format)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineIdx, err)
		}
		if words == nil {
			log.Warningf("bad document at line %d: %s", lineIdx, doc)
			continue
		}

		c.Docs = append(c.Docs, words)
		c.DocIds = append(c.DocIds, docId)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	log.Infof("number of documents %d", c.DocNum())
	log.Infof("number of tokens %d", c.TokenNum())
	log.Infof("vocabulary size %d", c.VocabSize)
	return c, nil
}

// parseWordCountLine returns nil words when the line has no usable
// word counts.
func parseWordCountLine(doc string) (uint32, []uint32, error) {
	vals := strings.Fields(doc)
	if len(vals) < 2 {
		return 0, nil, nil
	}

	docId, err := strconv.ParseUint(vals[0], 10, 32)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: doc id %q: %v", ErrBadFormat, vals[0], err)
	}

	var wcs []*WordCount
	for _, kv := range vals[1:] {
		wc := strings.Split(kv, ":")
		if len(wc) != 2 {
			log.Warningf("bad word count: %s", kv)
			continue
		}

		wordId, err := strconv.ParseUint(wc[0], 10, 32)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: word id %q: %v", ErrBadFormat, wc[0], err)
		}

		count, err := strconv.ParseUint(wc[1], 10, 32)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: word count %q: %v", ErrBadFormat, wc[1], err)
		}

		wcs = append(wcs, &WordCount{
			WordId: uint32(wordId),
			Count:  uint32(count),
		})
	}

	words := ExpandWords(wcs)
	if len(words) == 0 {
		return uint32(docId), nil, nil
	}
	return uint32(docId), words, nil
}

func parseTokenLine(doc string) ([]uint32, error) {
	vals := strings.Fields(doc)
	words := make([]uint32, 0, len(vals))
	for _, v := range vals {
		wordId, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: word id %q: %v", ErrBadFormat, v, err)
		}
		words = append(words, uint32(wordId))
	}
	return words, nil
}
