package checkout

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-service/internal/domain/order"
)

// encodeCartNotes serializes the priced cart snapshot as a compact JSON
// array for the remote order's notes map. Prices are encoded as strings to
// keep decimal values exact across the redirect.
func encodeCartNotes(items []order.Item) string {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ProductID)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("price")
		e.Str(it.Price.String())
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.String()
}

// decodeCartNotes parses the snapshot back. An empty payload decodes to an
// empty cart; the caller decides whether that is an error. Prices encoded as
// JSON numbers are accepted for compatibility with older snapshots.
func decodeCartNotes(raw string) ([]order.Item, error) {
	if raw == "" {
		return nil, nil
	}

	var items []order.Item
	d := jx.DecodeStr(raw)
	if err := d.Arr(func(d *jx.Decoder) error {
		var it order.Item
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "id":
				v, err := d.Str()
				if err != nil {
					return err
				}
				it.ProductID = v
			case "quantity":
				v, err := d.Int()
				if err != nil {
					return err
				}
				it.Quantity = v
			case "price":
				switch d.Next() {
				case jx.String:
					v, err := d.Str()
					if err != nil {
						return err
					}
					p, err := decimal.NewFromString(v)
					if err != nil {
						return errors.Wrap(err, "parse price")
					}
					it.Price = p
				case jx.Number:
					n, err := d.Num()
					if err != nil {
						return err
					}
					p, err := decimal.NewFromString(string(n))
					if err != nil {
						return errors.Wrap(err, "parse price")
					}
					it.Price = p
				default:
					return errors.New("price must be a string or number")
				}
			default:
				return d.Skip()
			}
			return nil
		}); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart snapshot")
	}

	return items, nil
}
