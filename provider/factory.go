package provider

import "fmt"

// NewAdapter returns the adapter for kind.
//
// Every member of Kinds has exactly one adapter; TestNewAdapterCoversEveryKind
// fails if a kind is added without one. Missing collaborators in deps get
// defaults: a fresh transport.Client, the English catalog and a discard
// logger. A nil Secrets makes every bearer reference a store miss.
//
// Example:
//
//	a, err := provider.NewAdapter(provider.KindAnthropic, provider.Deps{Secrets: store})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res := a.TestHealth(ctx, p)
func NewAdapter(kind Kind, deps Deps) (Adapter, error) {
	proto, err := protocolFor(kind)
	if err != nil {
		return nil, err
	}
	return &adapter{proto: proto, deps: deps.withDefaults()}, nil
}

func protocolFor(kind Kind) (protocol, error) {
	switch kind {
	case KindOpenAICompatible:
		return openAICompatible{}, nil
	case KindOllama:
		return ollamaProtocol{}, nil
	case KindAliyunNative:
		return aliyunNative{}, nil
	case KindAnthropic:
		return anthropicProtocol{}, nil
	case KindGoogleGemini:
		return googleGemini{}, nil
	case KindAzureOpenAI:
		return azureOpenAI{}, nil
	case KindZhipuGLMNative:
		return zhipuGLM{}, nil
	case KindBaiduQianfan:
		return baiduQianfan{}, nil
	case KindVertexGemini:
		return vertexGemini{}, nil
	default:
		return nil, fmt.Errorf("unknown provider kind: %s", kind)
	}
}

// RequiresCredential reports whether kind refuses to run without a bearer
// reference.
func RequiresCredential(kind Kind) bool {
	proto, err := protocolFor(kind)
	if err != nil {
		return false
	}
	return proto.profile().requiresAuth
}
