package recordprovider

import (
	"fmt"

	"github.com/cel-lang/celcore/internal/types"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	descpb "google.golang.org/protobuf/types/descriptorpb"
)

// Pool indexes message descriptors by fully-qualified name, the minimal
// subset of protoreflect's descriptor graph the RecordProvider needs.
// Grounded on internal/evaluator/builtins_grpc.go's use of
// github.com/jhump/protoreflect/desc to resolve message descriptors
// before constructing dynamic.Message values.
type Pool struct {
	messages map[string]*desc.MessageDescriptor
}

func NewPool() *Pool { return &Pool{messages: make(map[string]*desc.MessageDescriptor)} }

// AddFile registers every message type (including nested ones) declared
// in fd.
func (p *Pool) AddFile(fd *desc.FileDescriptor) {
	for _, md := range fd.GetMessageTypes() {
		p.addMessage(md)
	}
}

func (p *Pool) addMessage(md *desc.MessageDescriptor) {
	p.messages[md.GetFullyQualifiedName()] = md
	for _, nested := range md.GetNestedMessageTypes() {
		p.addMessage(nested)
	}
}

func (p *Pool) lookup(typeName string) (*desc.MessageDescriptor, bool) {
	md, ok := p.messages[typeName]
	return md, ok
}

// ProtoProvider is a RecordProvider backed by dynamic protobuf messages
// (§4.5 RecordProvider ABI), for hosts binding CEL against real .proto
// schemas rather than the synthetic types StaticProvider serves.
type ProtoProvider struct {
	pool *Pool
}

func NewProtoProvider(pool *Pool) *ProtoProvider {
	return &ProtoProvider{pool: pool}
}

func (p *ProtoProvider) Known(typeName string) bool {
	if IsWellKnown(typeName) {
		return true
	}
	_, ok := p.pool.lookup(typeName)
	return ok
}

func (p *ProtoProvider) Fields(typeName string) ([]FieldDescriptor, error) {
	md, ok := p.pool.lookup(typeName)
	if !ok {
		return nil, &ErrUnknownType{TypeName: typeName}
	}
	fields := md.GetFields()
	out := make([]FieldDescriptor, len(fields))
	for i, fd := range fields {
		out[i] = fieldDescriptorFrom(fd)
	}
	return out, nil
}

func (p *ProtoProvider) NewBuilder(typeName string) (Builder, error) {
	md, ok := p.pool.lookup(typeName)
	if !ok {
		return nil, &ErrUnknownType{TypeName: typeName}
	}
	return &protoBuilder{
		typeName: typeName,
		md:       md,
		msg:      dynamic.NewMessage(md),
	}, nil
}

func fieldDescriptorFrom(fd *desc.FieldDescriptor) FieldDescriptor {
	return FieldDescriptor{
		Name:             fd.GetName(),
		Number:           fd.GetNumber(),
		Type:             celTypeForField(fd),
		ExplicitPresence: fd.GetMessageType() != nil || fd.IsProto3Optional(),
	}
}

func celTypeForField(fd *desc.FieldDescriptor) types.Type {
	if fd.IsRepeated() && !fd.IsMap() {
		return types.ListT{Elem: celScalarType(fd)}
	}
	if fd.IsMap() {
		mapEntry := fd.GetMessageType()
		keyT := celScalarType(mapEntry.FindFieldByNumber(1))
		valT := celScalarType(mapEntry.FindFieldByNumber(2))
		return types.MapT{Key: keyT, Val: valT}
	}
	return celScalarType(fd)
}

func celScalarType(fd *desc.FieldDescriptor) types.Type {
	if fd == nil {
		return types.DynType
	}
	if fd.GetMessageType() != nil {
		return types.RecordT{Name: fd.GetMessageType().GetFullyQualifiedName()}
	}
	switch fd.GetType() {
	case descpb.FieldDescriptorProto_TYPE_BOOL:
		return types.BoolType
	case descpb.FieldDescriptorProto_TYPE_INT32, descpb.FieldDescriptorProto_TYPE_INT64,
		descpb.FieldDescriptorProto_TYPE_SINT32, descpb.FieldDescriptorProto_TYPE_SINT64,
		descpb.FieldDescriptorProto_TYPE_SFIXED32, descpb.FieldDescriptorProto_TYPE_SFIXED64,
		descpb.FieldDescriptorProto_TYPE_ENUM:
		return types.IntType
	case descpb.FieldDescriptorProto_TYPE_UINT32, descpb.FieldDescriptorProto_TYPE_UINT64,
		descpb.FieldDescriptorProto_TYPE_FIXED32, descpb.FieldDescriptorProto_TYPE_FIXED64:
		return types.UintType
	case descpb.FieldDescriptorProto_TYPE_FLOAT, descpb.FieldDescriptorProto_TYPE_DOUBLE:
		return types.DoubleType
	case descpb.FieldDescriptorProto_TYPE_STRING:
		return types.StringType
	case descpb.FieldDescriptorProto_TYPE_BYTES:
		return types.BytesType
	default:
		return types.DynType
	}
}

type protoBuilder struct {
	typeName string
	md       *desc.MessageDescriptor
	msg      *dynamic.Message
}

func (b *protoBuilder) SetField(name string, v types.Value) error {
	fd := b.md.FindFieldByName(name)
	if fd == nil {
		return &ErrFieldNotFound{Field: name}
	}
	native, err := types.ToNative(v)
	if err != nil {
		return &ErrInvalidFieldType{Field: name, Want: celScalarType(fd), Got: v.Type()}
	}
	if err := b.msg.TrySetFieldByName(name, native); err != nil {
		return &ErrInvalidFieldType{Field: name, Want: celScalarType(fd), Got: v.Type()}
	}
	return nil
}

func (b *protoBuilder) Build() (*types.Record, error) {
	handle := &protoHandle{typeName: b.typeName, md: b.md, msg: b.msg}
	return types.NewRecord(handle), nil
}

// protoHandle implements types.RecordHandle over a dynamic.Message.
type protoHandle struct {
	typeName string
	md       *desc.MessageDescriptor
	msg      *dynamic.Message
}

func (h *protoHandle) TypeName() string { return h.typeName }

func (h *protoHandle) FieldNames() []string {
	fields := h.md.GetFields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.GetName()
	}
	return names
}

func (h *protoHandle) GetField(name string) (types.Value, bool) {
	fd := h.md.FindFieldByName(name)
	if fd == nil {
		return nil, false
	}
	raw := h.msg.GetFieldByName(name)
	v, err := nativeToValue(fd, raw)
	if err != nil {
		return types.NewError(types.ErrInternal, "%v", err), true
	}
	return v, true
}

func (h *protoHandle) GetFieldByNumber(number int32) (types.Value, bool) {
	fd := h.md.FindFieldByNumber(number)
	if fd == nil {
		return nil, false
	}
	return h.GetField(fd.GetName())
}

func (h *protoHandle) HasField(name string) bool {
	return h.msg.HasFieldName(name)
}

func nativeToValue(fd *desc.FieldDescriptor, raw interface{}) (types.Value, error) {
	if fd.IsRepeated() && !fd.IsMap() {
		slice, ok := raw.([]interface{})
		if !ok {
			return types.NewList(nil), nil
		}
		elems := make([]types.Value, len(slice))
		for i, e := range slice {
			v, err := scalarToValue(fd, e)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return types.NewList(elems), nil
	}
	return scalarToValue(fd, raw)
}

func scalarToValue(fd *desc.FieldDescriptor, raw interface{}) (types.Value, error) {
	switch v := raw.(type) {
	case bool:
		return types.Bool(v), nil
	case int32:
		return types.Int(int64(v)), nil
	case int64:
		return types.Int(v), nil
	case uint32:
		return types.Uint(uint64(v)), nil
	case uint64:
		return types.Uint(v), nil
	case float32:
		return types.Double(float64(v)), nil
	case float64:
		return types.Double(v), nil
	case string:
		return types.NewString(v), nil
	case []byte:
		return types.NewBytes(v), nil
	case *dynamic.Message:
		return valueFromMessage(v)
	case nil:
		return zeroValueFor(celScalarType(fd)), nil
	default:
		return nil, fmt.Errorf("unsupported protobuf field value type %T", raw)
	}
}

func valueFromMessage(msg *dynamic.Message) (types.Value, error) {
	typeName := msg.GetMessageDescriptor().GetFullyQualifiedName()
	handle := &protoHandle{typeName: typeName, md: msg.GetMessageDescriptor(), msg: msg}
	if v, ok := ConvertWellKnown(typeName, handle); ok {
		return v, nil
	}
	return types.NewRecord(handle), nil
}
