// Package attrib negotiates the configuration attributes of a context with
// the driver.
package attrib

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/vacontext"
	"github.com/xaionaro-go/vacontext/va"
)

// Negotiate queries the capabilities of the driver for the profile and the
// entry point and returns the attributes to create a configuration with.
//
// The RT format must include YUV 4:2:0. For EntryPointSliceEncode the
// requested rate control mode must be among the reported ones.
func Negotiate(
	ctx context.Context,
	display *va.Display,
	profile vacontext.Profile,
	entryPoint vacontext.EntryPoint,
	rc vacontext.RateControl,
) (_ret []va.ConfigAttrib, _err error) {
	logger.Debugf(ctx, "Negotiate(ctx, %s, %s, %s)", profile, entryPoint, rc)
	defer func() { logger.Debugf(ctx, "/Negotiate(ctx, %s, %s, %s): %v %v", profile, entryPoint, rc, _ret, _err) }()

	attribs := []va.ConfigAttrib{{Type: va.ConfigAttribRTFormat}}
	isSliceEncode := entryPoint == vacontext.EntryPointSliceEncode
	if isSliceEncode {
		attribs = append(attribs, va.ConfigAttrib{Type: va.ConfigAttribRateControl})
	}

	err := display.DoStatus(ctx, "vaGetConfigAttributes()", func(drv va.Driver) va.Status {
		return drv.GetConfigAttributes(profile.VAProfile(), entryPoint.VAEntrypoint(), attribs)
	})
	if err != nil {
		return nil, fmt.Errorf("unable to query the config attributes: %w", err)
	}

	rtFormats := attribs[0].Value
	if rtFormats == va.AttribNotSupported || rtFormats&va.RTFormatYUV420 == 0 {
		return nil, vacontext.ErrUnsupportedPixelFormat{RTFormats: rtFormats}
	}
	attribs[0].Value = va.RTFormatYUV420

	if isSliceEncode {
		requested := rc.VARateControl()
		supported := attribs[1].Value
		if requested == va.RCNone {
			supported = va.RCNone
		}
		if requested == 0 || supported == va.AttribNotSupported || supported&requested != requested {
			logger.Errorf(ctx, "unsupported %s rate control", va.RateControlString(requested))
			return nil, vacontext.ErrUnsupportedRateControl{Mode: rc, Supported: attribs[1].Value}
		}
		attribs[1].Value = requested
	}

	return attribs, nil
}

// QuerySingle returns the value the driver reports for the attribute. It
// does not depend on any configuration being created.
func QuerySingle(
	ctx context.Context,
	display *va.Display,
	profile vacontext.Profile,
	entryPoint vacontext.EntryPoint,
	attribType va.ConfigAttribType,
) (_ret uint32, _err error) {
	logger.Tracef(ctx, "QuerySingle(ctx, %s, %s, %s)", profile, entryPoint, attribType)
	defer func() {
		logger.Tracef(ctx, "/QuerySingle(ctx, %s, %s, %s): 0x%08x %v", profile, entryPoint, attribType, _ret, _err)
	}()

	attribs := []va.ConfigAttrib{{Type: attribType}}
	err := display.DoStatus(ctx, "vaGetConfigAttributes()", func(drv va.Driver) va.Status {
		return drv.GetConfigAttributes(profile.VAProfile(), entryPoint.VAEntrypoint(), attribs)
	})
	if err != nil {
		return 0, fmt.Errorf("unable to query attribute %s: %w", attribType, err)
	}
	if attribs[0].Value == va.AttribNotSupported {
		return 0, vacontext.ErrAttributeNotSupported{Type: attribType}
	}
	return attribs[0].Value, nil
}
