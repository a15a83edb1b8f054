package smile

// valueVisitor is the built-in Visitor that materializes a Value tree.
// DecodeValue drives a Decoder with one of these instead of asking callers
// to write their own for the common case.
type valueVisitor struct {
	result Value
	stack  []frame
}

type frame struct {
	isMap   bool
	array   []Value
	mapv    *OrderedMap
	pendKey string
	hasKey  bool
}

func (vv *valueVisitor) deliver(v Value) error {
	if len(vv.stack) == 0 {
		vv.result = v
		return nil
	}
	top := &vv.stack[len(vv.stack)-1]
	if top.isMap {
		if !top.hasKey {
			return newErr(InvalidType, "value delivered without a preceding key")
		}
		top.mapv.Set(top.pendKey, v)
		top.hasKey = false
		return nil
	}
	top.array = append(top.array, v)
	return nil
}

func (vv *valueVisitor) VisitNull() error            { return vv.deliver(Null()) }
func (vv *valueVisitor) VisitBool(b bool) error       { return vv.deliver(BoolValue(b)) }
func (vv *valueVisitor) VisitInt32(v int32) error     { return vv.deliver(Int32Value(v)) }
func (vv *valueVisitor) VisitInt64(v int64) error     { return vv.deliver(Int64Value(v)) }
func (vv *valueVisitor) VisitBigInt(b []byte) error   { return vv.deliver(BigIntValue(b)) }
func (vv *valueVisitor) VisitFloat32(f float32) error { return vv.deliver(Float32Value(f)) }
func (vv *valueVisitor) VisitFloat64(f float64) error { return vv.deliver(Float64Value(f)) }
func (vv *valueVisitor) VisitString(s string) error   { return vv.deliver(StringValue(s)) }
func (vv *valueVisitor) VisitBytes(b []byte) error    { return vv.deliver(BytesValue(b)) }

func (vv *valueVisitor) VisitBigDecimal(scale int32, unscaled []byte) error {
	return vv.deliver(BigDecimalValue(scale, unscaled))
}

func (vv *valueVisitor) VisitArrayBegin() error {
	vv.stack = append(vv.stack, frame{array: []Value{}})
	return nil
}

func (vv *valueVisitor) VisitArrayEnd() error {
	top := vv.stack[len(vv.stack)-1]
	vv.stack = vv.stack[:len(vv.stack)-1]
	return vv.deliver(ArrayValue(top.array))
}

func (vv *valueVisitor) VisitMapBegin() error {
	vv.stack = append(vv.stack, frame{isMap: true, mapv: NewOrderedMap()})
	return nil
}

func (vv *valueVisitor) VisitMapKey(key string) error {
	top := &vv.stack[len(vv.stack)-1]
	top.pendKey = key
	top.hasKey = true
	return nil
}

func (vv *valueVisitor) VisitMapEnd() error {
	top := vv.stack[len(vv.stack)-1]
	vv.stack = vv.stack[:len(vv.stack)-1]
	return vv.deliver(MapValue(top.mapv))
}
