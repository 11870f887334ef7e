// Package tracing 提供基于OpenTelemetry的分布式追踪
//
// 核心概念：
// 1. Trace（追踪）：一个完整的请求链路，如一次借书从HTTP入口到支付网关
// 2. Span（跨度）：一个操作单元，包含操作名称、耗时、状态
// 3. SpanContext：跨服务传递的TraceID/SpanID元数据
//
// 借阅系统中的链路示例：
//
//	Trace: 借书下单（TraceID=abc123）
//	├─ Span1: HTTP POST /api/v1/loans
//	│  ├─ Span2: BorrowBook用例（锁副本、建借阅单）
//	│  └─ Span3: 生成VNPay支付链接
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// InitTracer 初始化全局Tracer Provider
//
// 参数：
//   - serviceName: 服务名称（在Jaeger UI中显示，如 library-api）
//   - collectorEndpoint: OTLP gRPC端点（如 localhost:4317）
//
// 返回的shutdown函数必须在程序退出前调用，否则可能丢失最后一批Span。
//
// 采样策略：AlwaysSample（100%采样）适合开发/测试环境；
// 生产环境建议 sdktrace.TraceIDRatioBased(0.01)。
func InitTracer(serviceName, collectorEndpoint string) (func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// OTLP gRPC Exporter（默认端口4317）
	exporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(collectorEndpoint),
		otlptracegrpc.WithInsecure(), // 禁用TLS（生产环境应启用）
	)
	if err != nil {
		return nil, fmt.Errorf("创建OTLP exporter失败: %w", err)
	}

	// Resource描述产生遥测数据的实体，属性附加到所有Span上
	res, err := resource.New(
		ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("创建资源属性失败: %w", err)
	}

	// BatchSpanProcessor批量发送Span，默认每2秒或512个Span发送一次
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	// 全局Provider：业务代码直接用otel.Tracer()获取Tracer
	otel.SetTracerProvider(tp)

	// Propagator负责跨服务传递TraceID/SpanID
	// W3C Trace Context：标准HTTP Header格式（traceparent、tracestate）
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}

	return shutdown, nil
}

// StartSpan 创建一个新的Span（便捷函数）
//
// Span命名使用操作名（BorrowBook、ReturnBook），动态值放属性。
// 必须使用返回的ctx调用下游函数，否则无法构建调用树。
//
// 示例：
//
//	func (uc *BorrowBookUseCase) Execute(ctx context.Context) error {
//	    ctx, span := tracing.StartSpan(ctx, "library-api", "BorrowBook")
//	    defer span.End()
//	    // ...
//	}
func StartSpan(ctx context.Context, tracerName, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName)
}

// ExtractTraceID 从Context提取TraceID（用于关联日志）
//
// 在日志中记录TraceID，便于从日志快速定位到Jaeger追踪。
func ExtractTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// ExtractSpanID 从Context提取SpanID
func ExtractSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().SpanID().String()
}
