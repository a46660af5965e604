package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	errEmptySource   = errors.New("no header row")
	errNegative      = errors.New("value must not be negative")
	errNotInteger    = errors.New("value must be a whole number")
	errOutOfRange    = errors.New("value out of range")
	maxQuantity      = decimal.NewFromInt(math.MaxInt64)
	defaultPriceCols = []string{"price", "preco"}
	defaultQtyCols   = []string{"quantity", "qtd"}
)

// Options tune header matching and CSV dialect. Zero values select defaults.
type Options struct {
	PriceAliases    []string
	QuantityAliases []string
	Comma           rune
}

// Loader reads sales tables from CSV sources.
type Loader struct {
	opts    Options
	aliases map[string][]string
	logger  zerolog.Logger
}

// NewLoader constructs a Loader.
func NewLoader(opts Options, logger zerolog.Logger) *Loader {
	if len(opts.PriceAliases) == 0 {
		opts.PriceAliases = defaultPriceCols
	}
	if len(opts.QuantityAliases) == 0 {
		opts.QuantityAliases = defaultQtyCols
	}
	if opts.Comma == 0 {
		opts.Comma = ','
	}

	return &Loader{
		opts: opts,
		aliases: map[string][]string{
			ColumnPrice:    opts.PriceAliases,
			ColumnQuantity: opts.QuantityAliases,
		},
		logger: logger.With().Str("component", "loader").Logger(),
	}
}

// ResolveColumn maps name, or one of the loader's aliases, to a canonical
// column name.
func (l *Loader) ResolveColumn(name string) (string, error) {
	return resolveColumn(name, l.aliases)
}

// Load reads the CSV file at path using default options.
func Load(path string) (*Dataset, error) {
	return NewLoader(Options{}, zerolog.Nop()).Load(path)
}

// Load reads and validates the CSV file at path.
func (l *Loader) Load(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &SourceNotFoundError{Path: path, Err: err}
		}
		return nil, &FormatError{Path: path, Err: err}
	}
	defer file.Close()

	ds, err := l.LoadReader(path, file)
	if err != nil {
		return nil, err
	}

	l.logger.Debug().Str("path", path).Int("rows", ds.Len()).Msg("dataset loaded")
	return ds, nil
}

// LoadReader reads and validates a CSV stream. name is used in errors and as
// the dataset source.
func (l *Loader) LoadReader(name string, r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.Comma = l.opts.Comma
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &FormatError{Path: name, Err: errEmptySource}
		}
		return nil, csvFormatError(name, err)
	}

	cols, missing := resolveColumns(header, l.aliases, []string{ColumnPrice, ColumnQuantity})
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	priceIdx, qtyIdx := cols[ColumnPrice], cols[ColumnQuantity]

	records := make([]Record, 0, 64)
	var totalQty int64
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvFormatError(name, err)
		}

		line, _ := reader.FieldPos(0)

		price, err := parsePrice(row[priceIdx])
		if err != nil {
			return nil, &FormatError{Path: name, Line: line, Column: ColumnPrice, Err: err}
		}
		qty, err := parseQuantity(row[qtyIdx])
		if err != nil {
			return nil, &FormatError{Path: name, Line: line, Column: ColumnQuantity, Err: err}
		}
		if qty > math.MaxInt64-totalQty {
			return nil, &FormatError{Path: name, Line: line, Column: ColumnQuantity, Err: ErrQuantityOverflow}
		}
		totalQty += qty

		records = append(records, Record{Price: price, Quantity: qty})
	}

	return &Dataset{source: name, records: records}, nil
}

func csvFormatError(name string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &FormatError{Path: name, Line: parseErr.Line, Err: parseErr.Err}
	}
	return &FormatError{Path: name, Err: err}
}

func parsePrice(cell string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(cell))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %q: %w", cell, err)
	}
	if price.IsNegative() {
		return decimal.Decimal{}, errNegative
	}
	return price, nil
}

func parseQuantity(cell string) (int64, error) {
	qty, err := decimal.NewFromString(strings.TrimSpace(cell))
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", cell, err)
	}
	if qty.IsNegative() {
		return 0, errNegative
	}
	if !qty.IsInteger() {
		return 0, errNotInteger
	}
	if qty.GreaterThan(maxQuantity) {
		return 0, errOutOfRange
	}
	return qty.IntPart(), nil
}
