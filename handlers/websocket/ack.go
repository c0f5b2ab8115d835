package websocket

import (
	"fmt"
	"reflect"

	socketio "github.com/zishang520/socket.io/v2/socket"
)

// ackInvoker calls a client supplied acknowledgement callback.
type ackInvoker func(err error, payload map[string]any)

// extractAck splits a trailing acknowledgement callback off the event args.
func extractAck(datas []any) (ack ackInvoker, args []any) {
	if len(datas) == 0 {
		return nil, datas
	}

	ack = wrapAck(datas[len(datas)-1])
	if ack == nil {
		return nil, datas
	}
	return ack, datas[:len(datas)-1]
}

// wrapAck adapts candidate to ackInvoker. Socket.IO acks get the payload as
// their single argument; other func shapes have arguments fitted to their
// parameters.
func wrapAck(candidate any) ackInvoker {
	if candidate == nil {
		return nil
	}

	if fn, ok := candidate.(func([]any, error)); ok {
		return func(err error, payload map[string]any) {
			fn([]any{payload}, err)
		}
	}

	value := reflect.ValueOf(candidate)
	if value.Kind() != reflect.Func || value.Type().IsVariadic() {
		return nil
	}

	typ := value.Type()
	return func(err error, payload map[string]any) {
		value.Call(ackArgs(typ, err, payload))
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func ackArgs(typ reflect.Type, err error, payload map[string]any) []reflect.Value {
	args := make([]reflect.Value, typ.NumIn())
	for i := range args {
		target := typ.In(i)

		var arg any
		switch {
		case target == errorType:
			arg = err
		case target.Kind() == reflect.Slice && target.Elem().Kind() == reflect.Interface:
			arg = []any{payload}
		case len(args) == 1 && err != nil:
			arg = err
		case len(args) == 1, i == 1:
			arg = payload
		case i == 0:
			arg = err
		}
		args[i] = fitValue(arg, target)
	}
	return args
}

func fitValue(value any, target reflect.Type) reflect.Value {
	if value == nil {
		return reflect.Zero(target)
	}

	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(target):
		return rv
	case rv.Type().ConvertibleTo(target):
		return rv.Convert(target)
	case target.Kind() == reflect.Interface && target.NumMethod() == 0:
		return rv
	case target.Kind() == reflect.String:
		return reflect.ValueOf(fmt.Sprint(value)).Convert(target)
	}
	return reflect.Zero(target)
}

// respond answers through the ack callback when there is one and always
// emits the payload as event back to the sender.
func respond(socket *socketio.Socket, ack ackInvoker, event string, payload map[string]any, ackErr error) {
	if ack != nil {
		ack(ackErr, payload)
	}

	if event != "" && payload != nil {
		_ = socket.Emit(event, payload)
	}
}
