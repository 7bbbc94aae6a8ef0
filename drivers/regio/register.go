package regio

// Register is a typed view over one register (or a run of adjacent byte
// registers read as one value).
type Register[T any] struct {
	Addr   uint8
	Width  int // bytes, 1 or 2
	Decode func(Raw) T
	Encode func(T) Raw
}

// Get reads and decodes r.
func Get[T any](d *Device, r Register[T]) (T, error) {
	raw, err := d.Read(r.Addr, r.Width)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.Decode(raw), nil
}

// Set encodes and writes v without reading first.
func Set[T any](d *Device, r Register[T], v T) error {
	return d.Write(r.Addr, r.Width, r.Encode(v))
}

// Modify reads r, applies mutate to the decoded view and writes back the
// encoded result. A failed read leaves the register untouched. It returns the
// value that was written.
func Modify[T any](d *Device, r Register[T], mutate func(T) T) (T, error) {
	v, err := Get(d, r)
	if err != nil {
		return v, err
	}
	v = mutate(v)
	return v, Set(d, r, v)
}

// Identity is the no-op mutation: Modify(d, r, Identity[T]) rewrites the
// current raw value.
func Identity[T any](v T) T { return v }
