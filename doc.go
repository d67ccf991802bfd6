/*
Package hindsight is a revision-tolerant binary serialization framework.
A program persists structured values today and reads them back after their
shape has changed: fields added or removed, union variants introduced or
retired, variant payloads reshaped.

Every user-defined aggregate carries a small revision preamble on the wire.
A RecordType or UnionType declares the aggregate at its current revision
together with the lifetime of each field or variant; from that single
declaration the package derives the writer for the current revision and a
reader for every revision back to 1, composed with the user's conversion
callbacks into a current-revision value.

# Records

	type Person struct {
		Name string
		Age  uint32
	}

	var PersonType = hindsight.MustRecordType("Person", 2, []hindsight.Field[Person]{
		hindsight.Live("name", adapt.String, func(p *Person) *string { return &p.Name }),
		hindsight.Added("age", 2, adapt.U32,
			func(p *Person) *uint32 { return &p.Age },
			func(src uint16) (uint32, error) { return 0, nil }),
	})

Bytes written by revision 1 of the program (before Age existed) decode under
PersonType into a Person with the declared default applied.

# Unions

A UnionType dispatches on a per-revision discriminant table. Variants live at
the current revision decode their payload in place; retired variants decode
the old payload and hand it to an upgrade callback that builds a current
value.

Aggregates nest freely and each carries its own preamble, so an outer record
and its field types evolve on independent clocks.

The engine is stateless and re-entrant: descriptors and their derived plans
are immutable after construction and safe for concurrent use.
*/
package hindsight
