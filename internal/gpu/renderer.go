//go:build !nogpu

// Package gpu dispatches the raytracing kernel as a WGSL compute shader
// through gogpu/wgpu. It mirrors the CPU reference renderer in the root
// package: same scene buffers, same per-pixel kernel, same output layout,
// so the two paths can be compared pixel for pixel.
package gpu

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/raytrace"
)

//go:embed shaders/raytrace.wgsl
var kernelSource string

// fenceTimeout is the maximum time to wait for a dispatched frame.
// A frame always runs to completion; there is no cancellation.
const fenceTimeout = 5 * time.Second

// Renderer runs the raytracing kernel on the GPU.
//
// Construction compiles the kernel, resolves the named storage blocks to
// binding slots, and uploads the scene buffers once; they are read-only
// for the renderer's lifetime. Each Render call writes the camera
// uniforms, dispatches one kernel invocation per output pixel, waits on a
// fence (the memory barrier making the kernel's writes visible), and
// reads the output buffer back into the framebuffer.
type Renderer struct {
	mu sync.Mutex

	// AmbientColor is the global ambient light color.
	AmbientColor raytrace.RGB

	// BlankColor is the background color for rays that hit nothing.
	BlankColor raytrace.RGB

	// Cam is the mutable camera state, re-sent to the kernel every frame.
	Cam raytrace.Camera

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	// Scene buffers: uploaded once, bound read-only for the renderer's
	// lifetime.
	spheres   hal.Buffer
	materials hal.Buffer
	lights    hal.Buffer

	// Per-frame resources. params is rewritten each frame; output and
	// staging are reallocated on resize.
	params  hal.Buffer
	output  hal.Buffer
	staging hal.Buffer

	// Allocated buffer sizes, needed for bind group entries.
	sphereSize   uint64
	materialSize uint64
	lightSize    uint64
	outputSize   uint64

	fb *raytrace.Framebuffer
}

// New creates a GPU renderer for the given scene and output resolution.
//
// Construction is all-or-nothing: a missing GPU, a kernel compile failure,
// or a storage block name mismatch (BindingNotFoundError) aborts with an
// error and no renderer is returned.
func New(scene *raytrace.Scene, width, height int) (*Renderer, error) {
	if scene == nil {
		return nil, raytrace.ErrNilScene
	}
	if err := scene.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", raytrace.ErrInvalidSize, width, height)
	}

	r := &Renderer{fb: raytrace.NewFramebuffer(width, height)}

	if err := r.initGPU(); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.createPipeline(); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.uploadScene(scene); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.allocOutput(width, height); err != nil {
		r.Close()
		return nil, err
	}

	params, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "raytrace_params", Size: paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("raytrace gpu: create params buffer: %w", err)
	}
	r.params = params

	slogger().Debug("raytrace gpu: renderer created",
		"size", fmt.Sprintf("%dx%d", width, height),
		"spheres", len(scene.Spheres),
		"lights", len(scene.Lights))

	return r, nil
}

// SetLogger sets the logger for the GPU renderer.
func (r *Renderer) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Result returns the renderer's framebuffer. The contents are meaningful
// after Render has returned for the current dimensions.
func (r *Renderer) Result() *raytrace.Framebuffer { return r.fb }

// initGPU creates a standalone Vulkan device for compute-only use.
func (r *Renderer) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("raytrace gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("raytrace gpu: create instance: %w", err)
	}
	r.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("raytrace gpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("raytrace gpu: open device: %w", err)
	}
	r.device = openDev.Device
	r.queue = openDev.Queue

	slogger().Info("raytrace gpu: GPU initialized", "adapter", selected.Info.Name)
	return nil
}

// createPipeline compiles the WGSL kernel through naga and builds the
// compute pipeline with the fixed binding layout.
func (r *Renderer) createPipeline() error {
	// naga validates the WGSL before any GPU object exists, so a broken
	// kernel fails here with the compiler's diagnostic text.
	spirvBytes, err := naga.Compile(kernelSource)
	if err != nil {
		return fmt.Errorf("raytrace gpu: compile kernel: %w", err)
	}
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	module, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "raytrace_kernel",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("raytrace gpu: create shader module: %w", err)
	}
	r.module = module

	storageRO := func(binding uint32) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
		}
	}

	bindLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "raytrace_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    bindingParams,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			storageRO(bindingSpheres),
			storageRO(bindingMaterials),
			storageRO(bindingLights),
			{
				Binding:    bindingOutput,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("raytrace gpu: create bind group layout: %w", err)
	}
	r.bindLayout = bindLayout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "raytrace_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		return fmt.Errorf("raytrace gpu: create pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	pipeline, err := r.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "raytrace_kernel",
		Layout:  pipeLayout,
		Compute: hal.ComputeState{Module: module, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("raytrace gpu: create compute pipeline: %w", err)
	}
	r.pipeline = pipeline

	return nil
}

// uploadScene packs the three record sequences and uploads each to a
// storage buffer bound at the slot its block name resolves to. The
// buffers stay bound for the renderer's lifetime; the scene is never
// consulted again.
func (r *Renderer) uploadScene(scene *raytrace.Scene) error {
	upload := func(target *hal.Buffer, sizeOut *uint64, name string, data []byte) error {
		if _, err := resolveBinding(kernelSource, name); err != nil {
			return err
		}
		// wgpu rejects zero-sized buffers; an empty sequence still gets a
		// minimal buffer so arrayLength reports 0.
		size := uint64(len(data))
		if size < 4 {
			size = 4
		}
		buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "raytrace_" + name, Size: size,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("raytrace gpu: create %s buffer: %w", name, err)
		}
		*target = buf
		*sizeOut = size
		if len(data) > 0 {
			r.queue.WriteBuffer(buf, 0, data)
		}
		return nil
	}

	if err := upload(&r.spheres, &r.sphereSize, "Spheres", packSpheres(scene.Spheres)); err != nil {
		return err
	}
	if err := upload(&r.materials, &r.materialSize, "Materials", packMaterials(scene.Materials)); err != nil {
		return err
	}
	return upload(&r.lights, &r.lightSize, "Lights", packLights(scene.Lights))
}

// allocOutput creates the output and staging buffers for a resolution.
func (r *Renderer) allocOutput(width, height int) error {
	size := uint64(width) * uint64(height) * 16 // vec4<f32> per pixel

	output, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "raytrace_output", Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("raytrace gpu: create output buffer: %w", err)
	}
	r.output = output

	staging, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "raytrace_staging", Size: size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("raytrace gpu: create staging buffer: %w", err)
	}
	r.staging = staging
	r.outputSize = size

	return nil
}

// Resize changes the output resolution: the framebuffer and the GPU
// output/staging buffers are reallocated before the next dispatch.
// Resizing between frames is always safe.
func (r *Renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", raytrace.ErrInvalidSize, width, height)
	}
	if width == r.fb.Width() && height == r.fb.Height() {
		return nil
	}

	if r.output != nil {
		r.device.DestroyBuffer(r.output)
		r.output = nil
	}
	if r.staging != nil {
		r.device.DestroyBuffer(r.staging)
		r.staging = nil
	}
	if err := r.allocOutput(width, height); err != nil {
		return err
	}
	r.fb.Resize(width, height)

	slogger().Debug("raytrace gpu: resized", "size", fmt.Sprintf("%dx%d", width, height))
	return nil
}

// Render runs one full-frame kernel invocation: upload the camera
// uniforms, dispatch (width, height, 1) workgroups of size 1x1x1, wait on
// the fence, and read the output image back into the framebuffer.
//
// The fence wait is the frame's single suspension point; once Render
// returns, every pixel write is visible in the framebuffer.
func (r *Renderer) Render() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device == nil {
		return raytrace.ErrClosed
	}

	width, height := r.fb.Width(), r.fb.Height()
	pixelBytes := uint64(width) * uint64(height) * 16

	r.queue.WriteBuffer(r.params, 0, packParams(&r.Cam, r.AmbientColor, r.BlankColor, width, height))

	entry := func(binding uint32, buf hal.Buffer, size uint64) gputypes.BindGroupEntry {
		return gputypes.BindGroupEntry{
			Binding:  binding,
			Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: size},
		}
	}
	bg, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "raytrace_bg",
		Layout: r.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			entry(bindingParams, r.params, paramsSize),
			entry(bindingSpheres, r.spheres, r.sphereSize),
			entry(bindingMaterials, r.materials, r.materialSize),
			entry(bindingLights, r.lights, r.lightSize),
			entry(bindingOutput, r.output, r.outputSize),
		},
	})
	if err != nil {
		return fmt.Errorf("raytrace gpu: create bind group: %w", err)
	}
	defer r.device.DestroyBindGroup(bg)

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "raytrace_frame"})
	if err != nil {
		return fmt.Errorf("raytrace gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("raytrace_frame"); err != nil {
		return fmt.Errorf("raytrace gpu: begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "raytrace_kernel"})
	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(uint32(width), uint32(height), 1)
	pass.End()

	encoder.CopyBufferToBuffer(r.output, r.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: pixelBytes},
	})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("raytrace gpu: end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.device.CreateFence()
	if err != nil {
		return fmt.Errorf("raytrace gpu: create fence: %w", err)
	}
	defer r.device.DestroyFence(fence)

	if err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("raytrace gpu: submit: %w", err)
	}
	ok, err := r.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("raytrace gpu: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("raytrace gpu: GPU timeout after %v", fenceTimeout)
	}

	readback := make([]byte, pixelBytes)
	if err := r.queue.ReadBuffer(r.staging, 0, readback); err != nil {
		return fmt.Errorf("raytrace gpu: readback: %w", err)
	}
	unpackPixels(readback, r.fb.Pix())

	slogger().Debug("raytrace gpu: frame rendered",
		"size", fmt.Sprintf("%dx%d", width, height))
	return nil
}

// Close releases all GPU resources. The renderer cannot be used afterwards.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device != nil {
		destroyBuf := func(b *hal.Buffer) {
			if *b != nil {
				r.device.DestroyBuffer(*b)
				*b = nil
			}
		}
		destroyBuf(&r.params)
		destroyBuf(&r.spheres)
		destroyBuf(&r.materials)
		destroyBuf(&r.lights)
		destroyBuf(&r.output)
		destroyBuf(&r.staging)

		if r.pipeline != nil {
			r.device.DestroyComputePipeline(r.pipeline)
			r.pipeline = nil
		}
		if r.pipeLayout != nil {
			r.device.DestroyPipelineLayout(r.pipeLayout)
			r.pipeLayout = nil
		}
		if r.bindLayout != nil {
			r.device.DestroyBindGroupLayout(r.bindLayout)
			r.bindLayout = nil
		}
		if r.module != nil {
			r.device.DestroyShaderModule(r.module)
			r.module = nil
		}

		r.device.Destroy()
		r.device = nil
	}
	if r.instance != nil {
		r.instance.Destroy()
		r.instance = nil
	}
	r.queue = nil
}
