package grpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStruct converts an api document to a Struct message.
func toStruct(v any) (*structpb.Struct, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("failed to build struct message: %w", err)
	}
	return out, nil
}

// fromStruct decodes a Struct message into an api document.
func fromStruct(in *structpb.Struct, v any) error {
	body, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to read struct message: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	return nil
}

// decodeRequest decodes a request, reporting malformed documents as InvalidArgument.
func decodeRequest(in *structpb.Struct, v any) error {
	if in == nil {
		return status.Error(codes.InvalidArgument, "request is required")
	}
	if err := fromStruct(in, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

// encodeResponse encodes a response, reporting failures as Internal.
func encodeResponse(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
